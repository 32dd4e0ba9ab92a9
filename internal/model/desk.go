package model

// Desk describes a bookable desk on the floor plan.  Desks are
// identified for humans by Number and referenced by reservations
// through Name.  Grid coordinates place the desk on the floor-plan
// grid; spans default to 1 when unset.
//
// Fields:
//  ID            – primary key identifier.
//  Number        – stable, human-facing desk number.
//  Name          – unique desk name referenced by reservations.
//  GridRow       – floor-plan row (1-based).
//  GridCol       – floor-plan column (1-based).
//  RowSpan       – number of grid rows covered.
//  ColSpan       – number of grid columns covered.
//  FixedAssignee – user permanently bound to the desk (nil if none).
//  Active        – whether the desk is offered for booking.
type Desk struct {
	ID            uint64  `json:"id"`                       // desks.id
	Number        int     `json:"number"`                   // desks.number
	Name          string  `json:"name"`                     // desks.desk_name
	GridRow       int     `json:"grid_row"`                 // desks.grid_row
	GridCol       int     `json:"grid_col"`                 // desks.grid_col
	RowSpan       int     `json:"row_span"`                 // desks.row_span
	ColSpan       int     `json:"col_span"`                 // desks.col_span
	FixedAssignee *string `json:"fixed_assignee,omitempty"` // desks.fixed_reserve (nullable)
	Active        bool    `json:"active"`                   // desks.is_active
}

// IsFixed reports whether the desk is permanently assigned to someone.
func (d Desk) IsFixed() bool {
	return d.FixedAssignee != nil && *d.FixedAssignee != ""
}

// Assignee returns the fixed assignee or an empty string.
func (d Desk) Assignee() string {
	if d.FixedAssignee == nil {
		return ""
	}
	return *d.FixedAssignee
}
