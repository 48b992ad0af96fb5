// pkg/email/service.go
package email

var GlobalEmailService *EmailService

func InitEmailService(apiKey, listID, confirmTplID, senderName, senderEmail string) error {
	service, err := NewEmailService(apiKey, listID, confirmTplID, senderName, senderEmail)
	if err != nil {
		return err
	}
	GlobalEmailService = service
	return nil
}
