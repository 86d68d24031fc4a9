// Package rpc defines the JSON request/reply contract spoken between
// the gateway and the directory services over NATS.
package rpc

// Subjects answered by the token service.
const (
	SubjectGenerateToken = "auth.generateToken"
	SubjectValidateToken = "auth.validateToken"
)

// Subjects answered by the user directory.
const (
	SubjectUserFindByID            = "user.findById"
	SubjectUserFindByEmail         = "user.findUserByEmail"
	SubjectUserFindByEmailPassword = "user.findUserByEmailAndPassword"
	SubjectUserCreate              = "user.create"
	SubjectUserCreateByInvite      = "user.createNewUserByInvite"
	SubjectUserSendVerifyEmail     = "user.sendVerifyEmail"
	SubjectUserValidateEmailToken  = "user.validateEmailVerificationToken"
	SubjectUserForgotPassword      = "user.forgotPassword"
	SubjectUserValidateResetToken  = "user.validateForgotPasswordToken"
	SubjectUserResetPassword       = "user.resetPassword"
	SubjectUserDeleteAccount       = "user.deleteAccount"

	// Fire-and-forget event, no reply.
	SubjectUserTouchLastLogin = "user.updateLastLoginAt"
)

// Subjects answered by the project directory.
const (
	SubjectProjectCreate            = "project.create"
	SubjectProjectGet               = "project.get"
	SubjectProjectGetAll            = "project.getAll"
	SubjectProjectUpdate            = "project.update"
	SubjectProjectDelete            = "project.delete"
	SubjectProjectTransfer          = "project.transfer"
	SubjectProjectValidateOwnership = "project.validateOwnership"

	SubjectMemberGetByProject      = "member.getByProject"
	SubjectMemberGetByProjectUser  = "member.getByProjectIdAndUserId"
	SubjectMemberCreate            = "member.create"
	SubjectMemberUpdateRole        = "member.updateRole"
	SubjectMemberDelete            = "member.delete"
	SubjectMemberSendInvitation    = "member.sendInvitation"
	SubjectMemberAcceptInvitation  = "member.acceptInvitation"
	SubjectMemberDeclineInvitation = "member.declineInvitation"
	SubjectMemberGetInvitation     = "member.getInvitationByToken"
)

// Queue groups; one per directory so replicas share the load.
const (
	QueueTokenService     = "tokend"
	QueueUserDirectory    = "userd"
	QueueProjectDirectory = "projectd"
)
