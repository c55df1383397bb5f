// package domain holds the persistent entities of the review request service.
package domain

import "time"

// User is an acting identity. Anonymous callers are represented by a nil
// *User throughout the service layer.
type User struct {
	ID               int64  `db:"id"`
	Username         string `db:"username"`
	Email            string `db:"email"`
	IsSuperuser      bool   `db:"is_superuser"`
	CanSubmitAs      bool   `db:"can_submit_as"`
	CanDeleteRequest bool   `db:"can_delete_request"`
	LocalSiteAdmin   bool   `db:"local_site_admin"`
}

// Group is a reviewer group that review requests can target.
type Group struct {
	ID          int64  `db:"id"`
	Name        string `db:"name"`
	DisplayName string `db:"display_name"`
	MailingList string `db:"mailing_list"`
}

// Repository is a source code repository that review requests are filed
// against.
type Repository struct {
	ID         int64  `db:"id"`
	Name       string `db:"name"`
	Path       string `db:"path"`
	MirrorPath string `db:"mirror_path"`
	Visible    bool   `db:"visible"`
}

// ReviewRequest is the top-level unit of review, wrapping a single code
// change. It is mutated only through its Draft until published.
type ReviewRequest struct {
	ID           int64     `db:"id"`
	SubmitterID  int64     `db:"submitter_id"`
	RepositoryID int64     `db:"repository_id"`
	ChangeNum    *int64    `db:"change_num"`
	Status       Status    `db:"status"`
	Public       bool      `db:"public"`
	Summary      string    `db:"summary"`
	Description  string    `db:"description"`
	TestingDone  string    `db:"testing_done"`
	BugsClosed   string    `db:"bugs_closed"`
	Branch       string    `db:"branch"`
	TimeAdded    time.Time `db:"time_added"`
	LastUpdated  time.Time `db:"last_updated"`

	TargetGroups []Group `db:"-"`
	TargetPeople []User  `db:"-"`
}

// Draft is the singleton, owner-visible staging copy of pending edits to a
// ReviewRequest. At most one draft exists per review request.
type Draft struct {
	ID              int64     `db:"id"`
	ReviewRequestID int64     `db:"review_request_id"`
	Summary         string    `db:"summary"`
	Description     string    `db:"description"`
	TestingDone     string    `db:"testing_done"`
	BugsClosed      string    `db:"bugs_closed"`
	Branch          string    `db:"branch"`
	ChangeDesc      string    `db:"change_description"`
	DiffSetID       *int64    `db:"diffset_id"`
	LastUpdated     time.Time `db:"last_updated"`

	TargetGroups []Group `db:"-"`
	TargetPeople []User  `db:"-"`
}

// DiffSet is one immutable revision of the full set of per-file diffs.
// While pending on a draft, ReviewRequestID is nil and Revision is zero;
// publishing attaches it to the review request's history at the next dense
// revision number, starting at 1.
type DiffSet struct {
	ID              int64     `db:"id"`
	Name            string    `db:"name"`
	Revision        int       `db:"revision"`
	ReviewRequestID *int64    `db:"review_request_id"`
	Timestamp       time.Time `db:"timestamp"`
}

// FileDiff is the diff of a single file within a DiffSet.
type FileDiff struct {
	ID             int64  `db:"id"`
	DiffSetID      int64  `db:"diffset_id"`
	SourceFile     string `db:"source_file"`
	DestFile       string `db:"dest_file"`
	SourceRevision string `db:"source_revision"`
	DestDetail     string `db:"dest_detail"`
	Diff           []byte `db:"diff"`
}

// Review is an author's feedback on a review request. A Review with a
// non-nil BaseReplyToID is a reply threading a conversation under another
// review. While Public is false the review is a private draft visible only
// to its author; publishing is irreversible.
type Review struct {
	ID              int64     `db:"id"`
	ReviewRequestID int64     `db:"review_request_id"`
	UserID          int64     `db:"user_id"`
	Public          bool      `db:"public"`
	ShipIt          bool      `db:"ship_it"`
	BodyTop         string    `db:"body_top"`
	BodyBottom      string    `db:"body_bottom"`
	BaseReplyToID   *int64    `db:"base_reply_to_id"`
	BodyTopReplyTo  *int64    `db:"body_top_reply_to_id"`
	BodyBotReplyTo  *int64    `db:"body_bottom_reply_to_id"`
	Timestamp       time.Time `db:"timestamp"`
}

// IsReply reports whether the review threads under another review.
func (r *Review) IsReply() bool { return r.BaseReplyToID != nil }

// Comment is a diff comment anchored to a line range of a FileDiff,
// optionally paired with an interdiff FileDiff. Replies carry the anchor
// fields forward from the original comment.
type Comment struct {
	ID              int64     `db:"id"`
	ReviewID        int64     `db:"review_id"`
	FileDiffID      int64     `db:"filediff_id"`
	InterFileDiffID *int64    `db:"interfilediff_id"`
	ReplyToID       *int64    `db:"reply_to_id"`
	FirstLine       int       `db:"first_line"`
	NumLines        int       `db:"num_lines"`
	Text            string    `db:"text"`
	Timestamp       time.Time `db:"timestamp"`
}

// ScreenshotComment is a comment anchored to a rectangular region of a
// screenshot.
type ScreenshotComment struct {
	ID           int64     `db:"id"`
	ReviewID     int64     `db:"review_id"`
	ScreenshotID int64     `db:"screenshot_id"`
	ReplyToID    *int64    `db:"reply_to_id"`
	X            int       `db:"x"`
	Y            int       `db:"y"`
	W            int       `db:"w"`
	H            int       `db:"h"`
	Text         string    `db:"text"`
	Timestamp    time.Time `db:"timestamp"`
}

// Screenshot is an image attached to a review request. DraftCaption stages a
// caption edit until the owning draft is published.
type Screenshot struct {
	ID              int64  `db:"id"`
	ReviewRequestID int64  `db:"review_request_id"`
	Caption         string `db:"caption"`
	DraftCaption    string `db:"draft_caption"`
	ImagePath       string `db:"image_path"`
}
