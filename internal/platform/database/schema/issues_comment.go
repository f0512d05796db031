package schema

// IssuesCommentTable represents the 'issues.comment' table
type IssuesCommentTable struct {
	Table          string
	ID             string
	IssueID        string
	UserID         string
	Message        string
	AttachmentPath string
	CreatedAt      string
	UpdatedAt      string
}

// IssuesComment is the schema definition for issues.comment
var IssuesComment = IssuesCommentTable{
	Table:          "issues.comment",
	ID:             "id",
	IssueID:        "issueid",
	UserID:         "userid",
	Message:        "message",
	AttachmentPath: "attachmentpath",
	CreatedAt:      "createdat",
	UpdatedAt:      "updatedat",
}
