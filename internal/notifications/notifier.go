package notifications

import "context"

type SendWelcomeEmailInput struct {
	Email    string
	FullName string
	Role     string
}

type Notifier interface {
	SendWelcomeEmail(ctx context.Context, input SendWelcomeEmailInput) error
}
