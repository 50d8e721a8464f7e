package service

import (
	"errors"
	"log/slog"

	"connectrpc.com/connect"

	"github.com/yurawu27/splittie/internal/apperr"
)

// ErrorCodeHeader carries the machine-readable apperr code on RPC errors.
const ErrorCodeHeader = "Splittie-Error-Code"

var errInternal = errors.New("internal error")

// connectError maps an apperr kind to a connect code. Internal failures are
// logged in full and reported generically.
func connectError(procedure string, err error) *connect.Error {
	var code connect.Code
	switch apperr.KindOf(err) {
	case apperr.KindValidation:
		code = connect.CodeInvalidArgument
	case apperr.KindNotFound:
		code = connect.CodeNotFound
	case apperr.KindConflict:
		code = connect.CodeAlreadyExists
		if apperr.CodeOf(err) == apperr.CodeStaleBill {
			code = connect.CodeAborted
		}
	case apperr.KindForbidden:
		code = connect.CodePermissionDenied
	case apperr.KindUnauthenticated:
		code = connect.CodeUnauthenticated
	default:
		slog.Error(procedure+" failed", "error", err)
		cerr := connect.NewError(connect.CodeInternal, errInternal)
		cerr.Meta().Set(ErrorCodeHeader, string(apperr.CodeInternal))
		return cerr
	}

	cerr := connect.NewError(code, err)
	cerr.Meta().Set(ErrorCodeHeader, string(apperr.CodeOf(err)))
	return cerr
}

// warningText flattens an integrity warning for the response body.
func warningText(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
