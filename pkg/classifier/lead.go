package classifier

// Column names read from the uploaded lead file
const (
	ColumnLocation = "Location"
	ColumnIndustry = "informalIndustry"
	ColumnEmail    = "Email"
)

// Lead is one row of an uploaded lead file. Columns keeps the file's header order.
type Lead struct {
	Columns []string          `json:"columns"`
	Values  map[string]string `json:"values"`
}

// NewLead builds a lead from parallel header and value slices. Missing trailing
// values are stored as empty strings.
func NewLead(header, values []string) Lead {
	l := Lead{
		Columns: append([]string(nil), header...),
		Values:  make(map[string]string, len(header)),
	}
	for i, col := range header {
		if i < len(values) {
			l.Values[col] = values[i]
		} else {
			l.Values[col] = ""
		}
	}
	return l
}

// Fields returns the lead's header columns in upload order
func (l Lead) Fields() []string { return l.Columns }

// Get returns the value of a column, or "" when absent
func (l Lead) Get(column string) string { return l.Values[column] }

// Location returns the Location column
func (l Lead) Location() string { return l.Get(ColumnLocation) }

// Industry returns the informalIndustry column
func (l Lead) Industry() string { return l.Get(ColumnIndustry) }

// Email returns the Email column
func (l Lead) Email() string { return l.Get(ColumnEmail) }
