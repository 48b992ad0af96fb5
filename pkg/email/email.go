package email

import (
	"bytes"
	"encoding/json"
	"fmt"
	"html/template"
	"io"
	"log"
	"net/http"
	"time"
)

const apiBase = "https://api.brevo.com/v3"

// SyncStatus classifies the outcome of a call to the marketing API.
// Degraded means the local write stands but the provider was not
// reachable for configuration or auth reasons; callers treat it as
// success toward the end user.
type SyncStatus int

const (
	SyncOK SyncStatus = iota
	SyncDegraded
	SyncFailed
)

type SyncResult struct {
	Status  SyncStatus
	Warning string
}

func okResult() SyncResult { return SyncResult{Status: SyncOK} }

func degraded(format string, args ...interface{}) SyncResult {
	return SyncResult{Status: SyncDegraded, Warning: fmt.Sprintf(format, args...)}
}

func failed(format string, args ...interface{}) SyncResult {
	return SyncResult{Status: SyncFailed, Warning: fmt.Sprintf(format, args...)}
}

type EmailService struct {
	apiKey       string
	listID       string
	confirmTplID string
	senderName   string
	senderEmail  string
	client       *http.Client
	templates    *template.Template

	// BaseURL is the provider API root. Tests point it at a local server.
	BaseURL string
}

type sender struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

type recipient struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

func NewEmailService(apiKey, listID, confirmTplID, senderName, senderEmail string) (*EmailService, error) {
	templates, err := loadTemplates()
	if err != nil {
		return nil, fmt.Errorf("error loading email templates: %v", err)
	}

	return &EmailService{
		apiKey:       apiKey,
		listID:       listID,
		confirmTplID: confirmTplID,
		senderName:   senderName,
		senderEmail:  senderEmail,
		client:       &http.Client{Timeout: 10 * time.Second},
		templates:    templates,
		BaseURL:      apiBase,
	}, nil
}

func (s *EmailService) call(method, path string, payload interface{}) (int, []byte, error) {
	jsonData, err := json.Marshal(payload)
	if err != nil {
		return 0, nil, fmt.Errorf("error marshaling request: %v", err)
	}

	req, err := http.NewRequest(method, s.BaseURL+path, bytes.NewBuffer(jsonData))
	if err != nil {
		return 0, nil, fmt.Errorf("error creating request: %v", err)
	}

	req.Header.Set("api-key", s.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, respBody, nil
}

// CreateContactDOI registers a contact requesting double opt-in; the
// provider sends the confirmation email with a hosted link back to
// redirectURL. Missing credentials and auth rejections degrade instead
// of failing: the subscription row is authoritative, delivery is
// best-effort.
func (s *EmailService) CreateContactDOI(email, name string, attributes map[string]interface{}, redirectURL string) SyncResult {
	if s.apiKey == "" || s.listID == "" || s.confirmTplID == "" {
		return degraded("email provider not configured, confirmation email skipped")
	}

	payload := map[string]interface{}{
		"email":          email,
		"attributes":     attributes,
		"includeListIds": []string{s.listID},
		"templateId":     s.confirmTplID,
		"redirectionUrl": redirectURL,
	}
	if name != "" {
		payload["attributes"].(map[string]interface{})["NOME"] = name
	}

	status, body, err := s.call(http.MethodPost, "/contacts/doubleOptinConfirmation", payload)
	if err != nil {
		return failed("provider unreachable: %v", err)
	}
	if status == http.StatusUnauthorized || status == http.StatusForbidden {
		return degraded("provider rejected credentials (%d)", status)
	}
	if status >= 300 {
		return failed("provider error %d: %s", status, string(body))
	}
	return okResult()
}

// UpdateContact mirrors preference attributes onto an existing contact.
func (s *EmailService) UpdateContact(email string, attributes map[string]interface{}) SyncResult {
	if s.apiKey == "" {
		return degraded("email provider not configured, contact update skipped")
	}

	payload := map[string]interface{}{"attributes": attributes}

	status, body, err := s.call(http.MethodPut, "/contacts/"+email, payload)
	if err != nil {
		return failed("provider unreachable: %v", err)
	}
	if status == http.StatusUnauthorized || status == http.StatusForbidden {
		return degraded("provider rejected credentials (%d)", status)
	}
	if status >= 300 {
		return failed("provider error %d: %s", status, string(body))
	}
	return okResult()
}

func (s *EmailService) sendTemplateEmail(to, toName, subject, templateName string, data interface{}) error {
	if s.apiKey == "" {
		return fmt.Errorf("email provider not configured")
	}

	var body bytes.Buffer
	if err := s.templates.ExecuteTemplate(&body, templateName, data); err != nil {
		return fmt.Errorf("template execution error: %v", err)
	}

	payload := map[string]interface{}{
		"sender":      sender{Name: s.senderName, Email: s.senderEmail},
		"to":          []recipient{{Email: to, Name: toName}},
		"subject":     subject,
		"htmlContent": body.String(),
	}

	log.Printf("Sending %q to %s", subject, to)

	status, respBody, err := s.call(http.MethodPost, "/smtp/email", payload)
	if err != nil {
		return err
	}
	if status >= 300 {
		return fmt.Errorf("provider error %d: %s", status, string(respBody))
	}
	return nil
}

// Template data structures
type NewListingData struct {
	Name     string
	Title    string
	Zone     string
	Price    float64
	Contract string
	URL      string
}

type NewPostData struct {
	Name     string
	Title    string
	Subtitle string
	URL      string
}

type LeadNotificationData struct {
	LeadName    string
	LeadEmail   string
	LeadMessage string
	Source      string
	Property    string
}

type LeadDigestData struct {
	Date  string
	Count int64
}

func (s *EmailService) SendNewListingEmail(to, name string, data NewListingData) error {
	data.Name = name
	return s.sendTemplateEmail(to, name, "Nuovo immobile: "+data.Title, "new_listing.html", data)
}

func (s *EmailService) SendNewPostEmail(to, name string, data NewPostData) error {
	data.Name = name
	return s.sendTemplateEmail(to, name, "Dal nostro blog: "+data.Title, "new_post.html", data)
}

func (s *EmailService) SendLeadNotificationEmail(inbox string, data LeadNotificationData) error {
	return s.sendTemplateEmail(inbox, "", "Nuova richiesta di contatto", "lead_notification.html", data)
}

func (s *EmailService) SendLeadDigestEmail(inbox string, data LeadDigestData) error {
	return s.sendTemplateEmail(inbox, "", "Richieste di contatto del "+data.Date, "lead_digest.html", data)
}
