package storage

import "errors"

var (
	ErrTableNotFound = errors.New("the table does not exist")
	ErrRowNotFound   = errors.New("the row does not exist")
	ErrTxnNotFound   = errors.New("no running transaction with that id")
	ErrTxnInFlight   = errors.New("the previous transaction on this id has not finished yet")
)
