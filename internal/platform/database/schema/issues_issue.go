package schema

// IssuesIssueTable represents the 'issues.issue' table
type IssuesIssueTable struct {
	Table          string
	ID             string
	IssueType      string
	Status         string
	MediaID        string
	ProblemSeason  string
	ProblemEpisode string
	CreatedByID    string
	ModifiedByID   string
	CreatedAt      string
	UpdatedAt      string
}

// IssuesIssue is the schema definition for issues.issue
var IssuesIssue = IssuesIssueTable{
	Table:          "issues.issue",
	ID:             "id",
	IssueType:      "issuetype",
	Status:         "status",
	MediaID:        "mediaid",
	ProblemSeason:  "problemseason",
	ProblemEpisode: "problemepisode",
	CreatedByID:    "createdbyid",
	ModifiedByID:   "modifiedbyid",
	CreatedAt:      "createdat",
	UpdatedAt:      "updatedat",
}
