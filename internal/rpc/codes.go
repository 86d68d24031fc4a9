package rpc

// Machine-readable result codes carried in replies. Constraint
// violations and business rejections are expressed through these, so
// raw database errors never cross the wire.
const (
	CodeTokenExpired = "TOKEN_EXPIRED"
	CodeTokenInvalid = "TOKEN_INVALID"

	CodeUserNotFound  = "USER_NOT_FOUND"
	CodeUserExists    = "USER_ALREADY_EXISTS"
	CodeUserInactive  = "USER_INACTIVE"
	CodeTokenNotFound = "VERIFICATION_TOKEN_NOT_FOUND"

	CodeProjectNotFound = "PROJECT_NOT_FOUND"
	CodeForbidden       = "FORBIDDEN"
	CodeSlugConflict    = "SLUG_CONFLICT"
	CodeBadRequest      = "BAD_REQUEST"

	CodeMemberNotFound      = "MEMBER_NOT_FOUND"
	CodeMemberAlreadyExists = "MEMBER_ALREADY_EXISTS"

	CodeInvitationNotFound      = "INVITATION_NOT_FOUND"
	CodeInvitationExpired       = "INVITATION_EXPIRED"
	CodeInvitationAlreadyExists = "INVITATION_ALREADY_EXISTS"
	CodeInvalidInvitationStatus = "INVALID_INVITATION_STATUS"

	CodeInternalError = "INTERNAL_ERROR"
)
