package api

type CreateEventRequest struct {
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	// Deadline is YYYY-MM-DD or empty.
	Deadline string `json:"deadline,omitempty"`
	// DateOptions are RFC 3339 timestamps.
	DateOptions     []string `json:"dateOptions,omitempty"`
	LocationOptions []string `json:"locationOptions,omitempty"`
}

type CreateEventResponse struct {
	Event *EventDetail `json:"event"`
}

type ListEventsRequest struct{}

type ListEventsResponse struct {
	Events []*EventSummary `json:"events"`
}

type JoinEventRequest struct {
	Code string `json:"code"`
}

type JoinEventResponse struct {
	Event *EventDetail `json:"event"`
	// Joined is false when the caller already was a member.
	Joined bool `json:"joined"`
}

type GetEventRequest struct {
	Code string `json:"code"`
}

type GetEventResponse struct {
	Event *EventDetail `json:"event"`
}

type AddDateOptionRequest struct {
	Code     string `json:"code"`
	DateTime string `json:"dateTime"`
}

type AddDateOptionResponse struct {
	Option  *RankedOption   `json:"option"`
	Ranking []*RankedOption `json:"ranking"`
}

type AddLocationOptionRequest struct {
	Code  string `json:"code"`
	Label string `json:"label"`
}

type AddLocationOptionResponse struct {
	Option  *RankedOption   `json:"option"`
	Ranking []*RankedOption `json:"ranking"`
}

type CastVoteRequest struct {
	Code string `json:"code"`
	// Category is DATE or LOCATION.
	Category string `json:"category"`
	OptionID string `json:"optionId"`
}

type CastVoteResponse struct {
	Ranking []*RankedOption `json:"ranking"`
}

type PostMessageRequest struct {
	Code string `json:"code"`
	Text string `json:"text"`
}

type PostMessageResponse struct {
	Message *Message `json:"message"`
}

type FinalizeEventRequest struct {
	Code string `json:"code"`
}

type FinalizeEventResponse struct {
	Event *EventDetail `json:"event"`
}

// EventSummary is the list view of an event.
type EventSummary struct {
	Code          string `json:"code"`
	Title         string `json:"title"`
	Status        string `json:"status"`
	Deadline      string `json:"deadline,omitempty"`
	FinalDateTime string `json:"finalDateTime,omitempty"`
	FinalLocation string `json:"finalLocation,omitempty"`
	CreatedAt     int64  `json:"createdAt"`
}

// EventDetail is the full view of an event for one of its members.
type EventDetail struct {
	Code        string `json:"code"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Deadline    string `json:"deadline,omitempty"`
	Status      string `json:"status"`
	OwnerUserID string `json:"ownerUserId"`
	IsOwner     bool   `json:"isOwner"`
	// PollingOpen is false once the deadline passed or the event left POLLING.
	PollingOpen   bool   `json:"pollingOpen"`
	FinalDateTime string `json:"finalDateTime,omitempty"`
	FinalLocation string `json:"finalLocation,omitempty"`

	Members         []*Member       `json:"members"`
	DateRanking     []*RankedOption `json:"dateRanking"`
	LocationRanking []*RankedOption `json:"locationRanking"`
	MyVotes         MyVotes         `json:"myVotes"`
	Messages        []*Message      `json:"messages"`
	Bill            *Bill           `json:"bill"`

	CreatedAt   int64 `json:"createdAt"`
	FinalizedAt int64 `json:"finalizedAt,omitempty"`
}

type Member struct {
	ID       string `json:"id"`
	UserID   string `json:"userId"`
	Name     string `json:"name"`
	JoinedAt int64  `json:"joinedAt"`
}

// RankedOption is a date or location option with its vote count. For date
// options Value is an RFC 3339 timestamp, for locations the label.
type RankedOption struct {
	ID        string `json:"id"`
	Value     string `json:"value"`
	Votes     int    `json:"votes"`
	CreatedBy string `json:"createdBy"`
}

// MyVotes holds the caller's current choices (option IDs, empty if none).
type MyVotes struct {
	Date     string `json:"date,omitempty"`
	Location string `json:"location,omitempty"`
}

type Message struct {
	ID       string `json:"id"`
	MemberID string `json:"memberId"`
	Name     string `json:"name"`
	Text     string `json:"text"`
	At       int64  `json:"at"`
}
