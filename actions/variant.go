package actions

// Variant tags accepted in action_type.
const (
	TypeEmail    = "email"
	TypeOpsGenie = "ops_genie"
	TypeSlack    = "slack"
)

// Base holds the envelope fields every stored action carries.
type Base struct {
	ActionName   string `mapstructure:"action_name" json:"action_name" validate:"required"`
	ActionType   string `mapstructure:"action_type" json:"action_type" validate:"required"`
	CreateDate   string `mapstructure:"create_date" json:"create_date,omitempty"`
	CreatedBy    string `mapstructure:"created_by" json:"created_by,omitempty"`
	ModifiedDate string `mapstructure:"modified_date" json:"modified_date,omitempty"`
}

func (b *Base) base() *Base { return b }

// EmailIntegration is the SMTP connection used to send mail.
type EmailIntegration struct {
	SMTPAddress    string `mapstructure:"smtp_address" json:"smtp_address" validate:"required" placeholder:"email-smtp.us-east-1.amazonaws.com" description:"SMTP Address e.g. email-smtp.us-east-1.amazonaws.com"`
	SMTPPort       string `mapstructure:"smtp_port" json:"smtp_port" validate:"required" placeholder:"587" description:"SMTP Port e.g. 587"`
	SenderLogin    string `mapstructure:"sender_login" json:"sender_login" validate:"required" placeholder:"Username" description:"SMTP Username"`
	SenderPassword string `mapstructure:"sender_password" json:"sender_password" validate:"required" placeholder:"Password" description:"SMTP Password"`
	SenderAlias    string `mapstructure:"sender_alias" json:"sender_alias" validate:"required,email" placeholder:"some@email.com" description:"The email address that will send the email."`
}

type EmailDetails struct {
	NotifyOn       string   `mapstructure:"notify_on" json:"notify_on" validate:"required,oneof=all failure success"`
	ReceiverEmails []string `mapstructure:"receiver_emails" json:"receiver_emails" validate:"required,min=1,dive,email" form_type:"multi_column_select"`
}

type Email struct {
	Base             `mapstructure:",squash"`
	EmailIntegration `mapstructure:",squash"`
	EmailDetails     `mapstructure:",squash"`
}

// SlackIntegration posts to an incoming webhook.
type SlackIntegration struct {
	SlackWebhook string `mapstructure:"slack_webhook" json:"slack_webhook" validate:"required,http_url" placeholder:"https://hooks.slack.com/services/T000/B000/XXXX"`
}

type SlackDetails struct {
	NotifyOn string `mapstructure:"notify_on" json:"notify_on" validate:"required,oneof=all failure success"`
}

type Slack struct {
	Base             `mapstructure:",squash"`
	SlackIntegration `mapstructure:",squash"`
	SlackDetails     `mapstructure:",squash"`
}

type OpsGenieIntegration struct {
	APIKey string `mapstructure:"api_key" json:"api_key" validate:"required"`
}

type OpsGenieDetails struct {
	NotifyOn string `mapstructure:"notify_on" json:"notify_on" validate:"required,oneof=all failure success"`
	Priority string `mapstructure:"priority" json:"priority" validate:"required,oneof=P1 P2 P3 P4 P5"`
}

type OpsGenie struct {
	Base                `mapstructure:",squash"`
	OpsGenieIntegration `mapstructure:",squash"`
	OpsGenieDetails     `mapstructure:",squash"`
}

// Action is a fully typed variant value.
type Action interface {
	// ServiceURL renders the notifier URL used to deliver messages.
	ServiceURL() (string, error)

	base() *Base
}
