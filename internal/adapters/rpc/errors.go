package rpc

import (
	"github.com/nearvndev/nft-marketplace-tutorial/internal/domains/contracts"
)

// Service error codes, one block per category so clients can branch on
// code ranges rather than message text.
const (
	codeInternal     = -32000
	codePrecondition = -32002
	codeRemote       = -32003
	codeNotFound     = -32004
	codeQuota        = -32005
)

func rpcInvalidParams() *rpcError {
	return &rpcError{Code: -32602, Message: "invalid params"}
}

// rpcServiceError maps a domain error onto the wire and counts the
// rejection.
func (s *Server) rpcServiceError(err error) *rpcError {
	category := contracts.ErrorCategory(err)
	s.settle.CallRejected(category)

	code := codeInternal
	switch category {
	case contracts.ErrorCategoryNotFound:
		code = codeNotFound
	case contracts.ErrorCategoryPrecondition:
		code = codePrecondition
	case contracts.ErrorCategoryRemote:
		code = codeRemote
	case contracts.ErrorCategoryQuota:
		code = codeQuota
	}
	return &rpcError{Code: code, Message: err.Error()}
}
