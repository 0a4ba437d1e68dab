package rpctest

import (
	"encoding/json"
	"fmt"
)

// Params decodes positional params into the given pointers, in order.
// Missing trailing params leave their targets untouched; extra params are
// an error.
//
//	var accountID int64
//	var key string
//	if err := rpctest.Params(params, &accountID, &key); err != nil {
//	    return nil, err
//	}
func Params(raw json.RawMessage, into ...any) error {
	var elems []json.RawMessage
	if err := json.Unmarshal(raw, &elems); err != nil {
		return &Error{Code: CodeInvalidParams, Message: fmt.Sprintf("params must be an array: %v", err)}
	}
	if len(elems) > len(into) {
		return &Error{Code: CodeInvalidParams, Message: fmt.Sprintf("want at most %d params, got %d", len(into), len(elems))}
	}
	for i, elem := range elems {
		if err := json.Unmarshal(elem, into[i]); err != nil {
			return &Error{Code: CodeInvalidParams, Message: fmt.Sprintf("param %d: %v", i, err)}
		}
	}
	return nil
}
