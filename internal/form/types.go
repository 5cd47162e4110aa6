package form

// Form types accepted by the relay
const (
	TypeContact  = "contact"
	TypeReferral = "referral"
)

// Submission is the request body posted by the website. Only the fields of
// the active form type are read.
type Submission struct {
	Type string `json:"type"`

	// BotToken is the Turnstile token. Widgets that post their default field
	// name end up in TurnstileResponse instead.
	BotToken          string `json:"botToken"`
	TurnstileResponse string `json:"cf-turnstile-response"`

	// Contact form
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Message string `json:"message"`

	// Referral form
	Participant   *Participant   `json:"participant"`
	Services      *Services      `json:"services"`
	Coordinator   *Coordinator   `json:"coordinator"`
	PlanManager   *PlanManager   `json:"planManager"`
	NDISDetails   *NDISDetails   `json:"ndisDetails"`
	PreferredDays *PreferredDays `json:"preferredDays"`

	Attachments []Attachment `json:"attachments"`
}

// Token returns the bot verification token, whichever field carried it.
func (s *Submission) Token() string {
	if s.BotToken != "" {
		return s.BotToken
	}
	return s.TurnstileResponse
}

type Participant struct {
	Name              string  `json:"name"`
	Email             string  `json:"email"`
	Phone             string  `json:"phone"`
	DateOfBirth       string  `json:"dateOfBirth"`
	PrimaryDisability string  `json:"primaryDisability"`
	BehaviourConcerns *string `json:"behaviourConcerns"`
}

// Services holds the requested support services
type Services struct {
	SupportCoordination    bool `json:"supportCoordination"`
	CommunityAccess        bool `json:"communityAccess"`
	AlliedHealthAssistants bool `json:"alliedHealthAssistants"`
	Accommodation          bool `json:"accommodation"`
}

type Coordinator struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Company string `json:"company"`
}

// PlanManager describes who manages the participant's NDIS plan.
// Older forms send the plan type as "type".
type PlanManager struct {
	Name       string `json:"name"`
	Email      string `json:"email"`
	PlanType   string `json:"planType"`
	LegacyType string `json:"type"`
}

func (p *PlanManager) planType() string {
	if p.PlanType != "" {
		return p.PlanType
	}
	return p.LegacyType
}

type NDISDetails struct {
	NDISNumber string `json:"ndisNumber"`
	StartDate  string `json:"startDate"`
	EndDate    string `json:"endDate"`
}

// PreferredDays holds the days the participant would like support on
type PreferredDays struct {
	Monday    bool `json:"monday"`
	Tuesday   bool `json:"tuesday"`
	Wednesday bool `json:"wednesday"`
	Thursday  bool `json:"thursday"`
	Friday    bool `json:"friday"`
	Saturday  bool `json:"saturday"`
	Sunday    bool `json:"sunday"`
}

// Attachment is a file uploaded with the form, already base64 encoded by the browser
type Attachment struct {
	Filename      string `json:"filename"`
	ContentType   string `json:"contentType"`
	Base64Content string `json:"base64Content"`
}

// Email is the rendered message handed to a mail relay
type Email struct {
	FormType    string
	Subject     string
	Body        string
	Attachments []Attachment
}
