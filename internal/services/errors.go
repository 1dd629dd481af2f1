package services

import "errors"

var (
	ErrControllerNotFound = errors.New("controller not found")
	ErrControllerExists   = errors.New("controller already registered")
	ErrApprovalNotFound   = errors.New("approval not found")
	ErrInvalidAddress     = errors.New("invalid controller address")
	ErrInvalidUsername    = errors.New("invalid username")
	ErrInvalidClassHash   = errors.New("invalid class hash")
	ErrInvalidScopes      = errors.New("invalid scopes")
)
