package conversionprotocol

const (
	CheckoutInitiated = "InitiateCheckout"
	Purchase          = "Purchase"

	ActionSourceWebsite = "website"
	ContentTypeProduct  = "product"
)

type Batch struct {
	Data []Event `json:"data"`
}

type Event struct {
	EventName      string     `json:"event_name"`
	EventTime      int64      `json:"event_time"`
	ActionSource   string     `json:"action_source"`
	EventSourceURL string     `json:"event_source_url,omitempty"`
	EventID        string     `json:"event_id"`
	UserData       UserData   `json:"user_data"`
	CustomData     CustomData `json:"custom_data"`
}

type UserData struct {
	Email           string `json:"em,omitempty"`
	Phone           string `json:"ph,omitempty"`
	FirstName       string `json:"fn,omitempty"`
	LastName        string `json:"ln,omitempty"`
	ClientUserAgent string `json:"client_user_agent,omitempty"`
	ClientIPAddress string `json:"client_ip_address,omitempty"`
}

type CustomData struct {
	Currency        string   `json:"currency,omitempty"`
	Value           string   `json:"value,omitempty"`
	ContentName     string   `json:"content_name,omitempty"`
	ContentCategory string   `json:"content_category,omitempty"`
	ContentIDs      []string `json:"content_ids,omitempty"`
	ContentType     string   `json:"content_type,omitempty"`
}

type Response struct {
	EventsReceived int    `json:"events_received"`
	FBTraceID      string `json:"fbtrace_id"`
	Error          *ResponseError `json:"error"`
}

type ResponseError struct {
	Message   string `json:"message"`
	Type      string `json:"type"`
	Code      int    `json:"code"`
	FBTraceID string `json:"fbtrace_id"`
}
