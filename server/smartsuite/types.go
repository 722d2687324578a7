package smartsuite

// Solution is a top-level SmartSuite workspace container.
type Solution struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	LogoIcon  string `json:"logo_icon"`
	LogoColor string `json:"logo_color"`
}

// FieldDescriptor describes one field of a table structure. Params carries
// per-type attributes (choices for selects, linked_application for
// relations, primary for the title-like field).
type FieldDescriptor struct {
	Slug      string         `json:"slug"`
	Label     string         `json:"label"`
	FieldType string         `json:"field_type"`
	Params    map[string]any `json:"params,omitempty"`
}

// IsPrimary reports whether the field is flagged as the record's
// title-like field.
func (f FieldDescriptor) IsPrimary() bool {
	if f.Params == nil {
		return false
	}
	primary, ok := f.Params["primary"].(bool)
	return ok && primary
}

// Structure is the ordered field list defining a table's columns.
type Structure []FieldDescriptor

// Table is an upstream table ("application" in SmartSuite terms).
type Table struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	SolutionID string    `json:"solution_id"`
	Structure  Structure `json:"structure"`
}

// Record is a mapping from field slug to value. Value shapes depend on the
// field type; collection values arrive as JSON arrays, status values as
// {value, updated_on} envelopes, rich documents as {data, html, preview,
// yjsData} composites.
type Record map[string]any

// ID returns the record id, or the empty string.
func (r Record) ID() string {
	id, _ := r["id"].(string)
	return id
}

// Member is a workspace member. Email and Status arrive in more than one
// upstream shape; the parser already normalized them here.
type Member struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	FullName    string `json:"full_name"`
	JobTitle    string `json:"job_title"`
	Department  string `json:"department"`
	Role        string `json:"role"`
	Status      string `json:"status"`
	DeletedDate string `json:"deleted_date"`
}

// Active reports whether the member has not been soft-deleted.
func (m Member) Active() bool {
	return m.DeletedDate == ""
}

// Team is a named group of members.
type Team struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	MemberCount int      `json:"member_count"`
	Members     []string `json:"members"`
}
