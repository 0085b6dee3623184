package email

import "github.com/dukerupert/bharosa/internal/domain"

// Mail errors carry domain codes so a failed send can be reported the same way
// as any other service error.
var (
	ErrInvalidFromAddress = &domain.Error{Code: domain.EINVALID, Op: "email.send", Message: "Invalid sender address"}
	ErrInvalidToAddress   = &domain.Error{Code: domain.EINVALID, Op: "email.send", Message: "Invalid recipient address"}
	ErrTemplateMissing    = &domain.Error{Code: domain.EINTERNAL, Op: "email.render", Message: "Email template not found"}
)
