package sheet

// Profile describes the header names of one bill sheet layout.
// Adding a layout is adding a Profile to the profiles slice.
type Profile struct {
	Name         string
	DescCol      string
	AmountCol    string
	DueCol       string
	CategoryCol  string // optional
	InstallCol   string // optional, number of monthly installments
	RecurCol     string // optional, recurrence type
	RecurEndCol  string // optional, last due date of a recurrence
	recurrenceOf map[string]string
}

func (p Profile) requiredCols() []string {
	return []string{p.DescCol, p.AmountCol, p.DueCol}
}

// profiles is the ordered list of layouts tried during header detection.
var profiles = []Profile{
	{
		Name:        "finny",
		DescCol:     "description",
		AmountCol:   "amount",
		DueCol:      "due_date",
		CategoryCol: "category",
		InstallCol:  "installments",
		RecurCol:    "recurrence",
		RecurEndCol: "recurrence_end",
		recurrenceOf: map[string]string{
			"monthly": "monthly",
			"weekly":  "weekly",
			"yearly":  "yearly",
		},
	},
	{
		Name:        "contas",
		DescCol:     "Descrição",
		AmountCol:   "Valor",
		DueCol:      "Vencimento",
		CategoryCol: "Categoria",
		InstallCol:  "Parcelas",
		RecurCol:    "Recorrência",
		RecurEndCol: "Fim",
		recurrenceOf: map[string]string{
			"mensal":  "monthly",
			"semanal": "weekly",
			"anual":   "yearly",
		},
	},
}
