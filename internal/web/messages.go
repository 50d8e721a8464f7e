package web

import (
	"github.com/yurawu27/splittie/internal/apperr"
)

var displayMessages = map[apperr.Code]string{
	apperr.CodeInvalidSubtotal:  "Invalid subtotal.",
	apperr.CodeInvalidTax:       "Tax cannot be negative.",
	apperr.CodeInvalidTip:       "Tip cannot be negative.",
	apperr.CodeZeroSubtotal:     "Subtotal is zero but items have a cost.",
	apperr.CodeNegativeItemCost: "Item costs cannot be negative.",
	apperr.CodeMissingTitle:     "Bill title is required.",
	apperr.CodeMissingPayer:     "Bill payer is required.",
	apperr.CodePayerNotFound:    "Bill payer's username does not exist.",
	apperr.CodeBillNotFound:     "Bill not found.",
	apperr.CodeNotParticipant:   "You are not part of this bill.",
	apperr.CodeStaleBill:        "This bill was changed by someone else. Reload and try again.",
	apperr.CodeUsernameTooShort: "Username or password is too short",
	apperr.CodePasswordTooShort: "Username or password is too short",
	apperr.CodeUsernameTaken:    "Username already exists",
	apperr.CodeUserNotFound:     "User not found.",
	apperr.CodePasswordMismatch: "Passwords do not match.",
	apperr.CodeDirectorySync:    "Bill saved, but some participants' bill lists are not updated yet.",
}

// displayMessage returns the user-facing text for err, or fallback when the
// error carries no known code.
func displayMessage(err error, fallback string) string {
	code := apperr.CodeOf(err)
	if code == apperr.CodeSplitterNotFound {
		// The message names the missing username.
		return "Error creating the bill: " + apperr.MessageOf(err)
	}
	if msg, ok := displayMessages[code]; ok {
		return msg
	}
	return fallback
}
