package errors

// Error code constants. Codes are the stable contract; messages may change.

// Requisition error codes.
const (
	CodeRequisitionNotFound       = "REQUISITION_NOT_FOUND"
	CodeRequisitionNotPending     = "REQUISITION_NOT_PENDING"
	CodeRequisitionNotSubmittable = "REQUISITION_NOT_SUBMITTABLE"
	CodeRequisitionNotRejected    = "REQUISITION_NOT_REJECTED"
	CodeRequisitionNotDraft       = "REQUISITION_NOT_DRAFT"
	CodeNotRequisitionOwner       = "NOT_REQUISITION_OWNER"
)

// Approval error codes.
const (
	CodeApprovalNotFound      = "APPROVAL_NOT_FOUND"
	CodeWrongApprovalStage    = "WRONG_APPROVAL_STAGE"
	CodeRejectCommentRequired = "REJECT_COMMENT_REQUIRED"
)

// Workflow definition error codes.
const (
	CodeNoWorkflowFound = "NO_WORKFLOW_FOUND"
	CodeWorkflowExists  = "WORKFLOW_ALREADY_EXISTS"
	CodeWorkflowInvalid = "WORKFLOW_INVALID"
)

// Notification error codes.
const (
	CodeNotificationNotFound = "NOTIFICATION_NOT_FOUND"
)

// User/department error codes.
const (
	CodeUserNotFound       = "USER_NOT_FOUND"
	CodeUserExists         = "USER_ALREADY_EXISTS"
	CodeDepartmentNotFound = "DEPARTMENT_NOT_FOUND"
	CodeDepartmentExists   = "DEPARTMENT_ALREADY_EXISTS"
	CodePermissionDenied   = "PERMISSION_DENIED"
)

// Auth error codes.
const (
	CodeAuthFailed      = "AUTH_FAILED"
	CodeTokenExpired    = "TOKEN_EXPIRED"
	CodeTokenInvalid    = "TOKEN_INVALID"
	CodePasswordTooWeak = "PASSWORD_TOO_WEAK"
)

// Validation error codes.
const (
	CodeInvalidRequestField = "INVALID_REQUEST_FIELD"
	CodeValidationFailed    = "VALIDATION_FAILED"
)
