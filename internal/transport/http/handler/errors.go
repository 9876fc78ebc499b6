package handler

import "github.com/gin-gonic/gin"

// Machine-readable error codes. The UI switches on "code", not on the
// HTTP status.
const (
	codeInvalidToken      = "INVALID_TOKEN"
	codeTokenExpired      = "TOKEN_EXPIRED"
	codeAlreadyResponded  = "ALREADY_RESPONDED"
	codeAlreadyClaimed    = "ALREADY_CLAIMED"
	codeInvalidTransition = "INVALID_TRANSITION"
	codeInvalidSlots      = "INVALID_SLOTS"
	codeNotFound          = "NOT_FOUND"
)

const (
	errInternalServer    = "Internal server error"
	errTokenInvalid      = "This link is invalid"
	errTokenExpired      = "This link has expired"
	errAlreadyResponded  = "You have already responded to this introduction"
	errAlreadyClaimed    = "This job has already been claimed"
	errInvalidTransition = "This action is not allowed in the current state"
	errInvalidSlots      = "Invalid interview slots"
	errIntroNotFound     = "Introduction not found"
	errJobNotFound       = "Job not found"
	errProposalNotFound  = "Interview not found"
)

func errorBody(code, msg string) gin.H {
	return gin.H{"error": msg, "code": code}
}
