package http

import (
	"strings"
	"time"

	"github.com/akulikov/review-request-service/internal/domain"
)

type userResponse struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

type groupResponse struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	DisplayName string `json:"display_name"`
	MailingList string `json:"mailing_list,omitempty"`
}

type reviewRequestResponse struct {
	ID           int64           `json:"id"`
	SubmitterID  int64           `json:"submitter_id"`
	RepositoryID int64           `json:"repository_id"`
	ChangeNum    *int64          `json:"changenum,omitempty"`
	Status       string          `json:"status"`
	Public       bool            `json:"public"`
	Summary      string          `json:"summary"`
	Description  string          `json:"description"`
	TestingDone  string          `json:"testing_done"`
	BugsClosed   []string        `json:"bugs_closed"`
	Branch       string          `json:"branch"`
	TargetGroups []groupResponse `json:"target_groups"`
	TargetPeople []userResponse  `json:"target_people"`
	TimeAdded    time.Time       `json:"time_added"`
	LastUpdated  time.Time       `json:"last_updated"`
}

type draftResponse struct {
	ID                int64           `json:"id"`
	ReviewRequestID   int64           `json:"review_request_id"`
	Summary           string          `json:"summary"`
	Description       string          `json:"description"`
	TestingDone       string          `json:"testing_done"`
	BugsClosed        []string        `json:"bugs_closed"`
	Branch            string          `json:"branch"`
	ChangeDescription string          `json:"change_description"`
	DiffSetID         *int64          `json:"diffset_id,omitempty"`
	TargetGroups      []groupResponse `json:"target_groups"`
	TargetPeople      []userResponse  `json:"target_people"`
	LastUpdated       time.Time       `json:"last_updated"`
}

type diffSetResponse struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Revision  int       `json:"revision"`
	Timestamp time.Time `json:"timestamp"`
}

type fileDiffResponse struct {
	ID             int64  `json:"id"`
	DiffSetID      int64  `json:"diffset_id"`
	SourceFile     string `json:"source_file"`
	DestFile       string `json:"dest_file"`
	SourceRevision string `json:"source_revision"`
	DestDetail     string `json:"dest_detail"`
	Diff           string `json:"diff"`
}

type reviewResponse struct {
	ID                int64     `json:"id"`
	ReviewRequestID   int64     `json:"review_request_id"`
	UserID            int64     `json:"user_id"`
	Public            bool      `json:"public"`
	ShipIt            bool      `json:"ship_it"`
	BodyTop           string    `json:"body_top"`
	BodyBottom        string    `json:"body_bottom"`
	BaseReplyToID     *int64    `json:"base_reply_to_id,omitempty"`
	BodyTopReplyTo    *int64    `json:"body_top_reply_to_id,omitempty"`
	BodyBottomReplyTo *int64    `json:"body_bottom_reply_to_id,omitempty"`
	Timestamp         time.Time `json:"timestamp"`
}

type diffCommentResponse struct {
	ID              int64     `json:"id"`
	ReviewID        int64     `json:"review_id"`
	FileDiffID      int64     `json:"filediff_id"`
	InterFileDiffID *int64    `json:"interfilediff_id,omitempty"`
	ReplyToID       *int64    `json:"reply_to_id,omitempty"`
	FirstLine       int       `json:"first_line"`
	NumLines        int       `json:"num_lines"`
	Text            string    `json:"text"`
	Timestamp       time.Time `json:"timestamp"`
}

type screenshotCommentResponse struct {
	ID           int64     `json:"id"`
	ReviewID     int64     `json:"review_id"`
	ScreenshotID int64     `json:"screenshot_id"`
	ReplyToID    *int64    `json:"reply_to_id,omitempty"`
	X            int       `json:"x"`
	Y            int       `json:"y"`
	W            int       `json:"w"`
	H            int       `json:"h"`
	Text         string    `json:"text"`
	Timestamp    time.Time `json:"timestamp"`
}

type screenshotResponse struct {
	ID              int64  `json:"id"`
	ReviewRequestID int64  `json:"review_request_id"`
	Caption         string `json:"caption"`
	DraftCaption    string `json:"draft_caption,omitempty"`
	ImagePath       string `json:"image_path"`
}

// splitBugs converts the stored comma-separated bug list into a slice. The
// slice is never nil so the JSON field is always an array.
func splitBugs(bugs string) []string {
	if bugs == "" {
		return []string{}
	}

	return strings.Split(bugs, ",")
}

func toUserResponses(users []domain.User) []userResponse {
	out := make([]userResponse, len(users))
	for i, u := range users {
		out[i] = userResponse{ID: u.ID, Username: u.Username, Email: u.Email}
	}

	return out
}

func toGroupResponses(groups []domain.Group) []groupResponse {
	out := make([]groupResponse, len(groups))
	for i, g := range groups {
		out[i] = groupResponse{
			ID:          g.ID,
			Name:        g.Name,
			DisplayName: g.DisplayName,
			MailingList: g.MailingList,
		}
	}

	return out
}

func toReviewRequestResponse(rr *domain.ReviewRequest) reviewRequestResponse {
	return reviewRequestResponse{
		ID:           rr.ID,
		SubmitterID:  rr.SubmitterID,
		RepositoryID: rr.RepositoryID,
		ChangeNum:    rr.ChangeNum,
		Status:       rr.Status.String(),
		Public:       rr.Public,
		Summary:      rr.Summary,
		Description:  rr.Description,
		TestingDone:  rr.TestingDone,
		BugsClosed:   splitBugs(rr.BugsClosed),
		Branch:       rr.Branch,
		TargetGroups: toGroupResponses(rr.TargetGroups),
		TargetPeople: toUserResponses(rr.TargetPeople),
		TimeAdded:    rr.TimeAdded,
		LastUpdated:  rr.LastUpdated,
	}
}

func toReviewRequestResponses(rrs []domain.ReviewRequest) []reviewRequestResponse {
	out := make([]reviewRequestResponse, len(rrs))
	for i := range rrs {
		out[i] = toReviewRequestResponse(&rrs[i])
	}

	return out
}

func toDraftResponse(d *domain.Draft) draftResponse {
	return draftResponse{
		ID:                d.ID,
		ReviewRequestID:   d.ReviewRequestID,
		Summary:           d.Summary,
		Description:       d.Description,
		TestingDone:       d.TestingDone,
		BugsClosed:        splitBugs(d.BugsClosed),
		Branch:            d.Branch,
		ChangeDescription: d.ChangeDesc,
		DiffSetID:         d.DiffSetID,
		TargetGroups:      toGroupResponses(d.TargetGroups),
		TargetPeople:      toUserResponses(d.TargetPeople),
		LastUpdated:       d.LastUpdated,
	}
}

func toDiffSetResponse(ds *domain.DiffSet) diffSetResponse {
	return diffSetResponse{
		ID:        ds.ID,
		Name:      ds.Name,
		Revision:  ds.Revision,
		Timestamp: ds.Timestamp,
	}
}

func toDiffSetResponses(sets []domain.DiffSet) []diffSetResponse {
	out := make([]diffSetResponse, len(sets))
	for i := range sets {
		out[i] = toDiffSetResponse(&sets[i])
	}

	return out
}

func toFileDiffResponses(files []domain.FileDiff) []fileDiffResponse {
	out := make([]fileDiffResponse, len(files))
	for i, f := range files {
		out[i] = fileDiffResponse{
			ID:             f.ID,
			DiffSetID:      f.DiffSetID,
			SourceFile:     f.SourceFile,
			DestFile:       f.DestFile,
			SourceRevision: f.SourceRevision,
			DestDetail:     f.DestDetail,
			Diff:           string(f.Diff),
		}
	}

	return out
}

func toReviewResponse(rv *domain.Review) reviewResponse {
	return reviewResponse{
		ID:                rv.ID,
		ReviewRequestID:   rv.ReviewRequestID,
		UserID:            rv.UserID,
		Public:            rv.Public,
		ShipIt:            rv.ShipIt,
		BodyTop:           rv.BodyTop,
		BodyBottom:        rv.BodyBottom,
		BaseReplyToID:     rv.BaseReplyToID,
		BodyTopReplyTo:    rv.BodyTopReplyTo,
		BodyBottomReplyTo: rv.BodyBotReplyTo,
		Timestamp:         rv.Timestamp,
	}
}

func toReviewResponses(reviews []domain.Review) []reviewResponse {
	out := make([]reviewResponse, len(reviews))
	for i := range reviews {
		out[i] = toReviewResponse(&reviews[i])
	}

	return out
}

func toDiffCommentResponse(c *domain.Comment) diffCommentResponse {
	return diffCommentResponse{
		ID:              c.ID,
		ReviewID:        c.ReviewID,
		FileDiffID:      c.FileDiffID,
		InterFileDiffID: c.InterFileDiffID,
		ReplyToID:       c.ReplyToID,
		FirstLine:       c.FirstLine,
		NumLines:        c.NumLines,
		Text:            c.Text,
		Timestamp:       c.Timestamp,
	}
}

func toDiffCommentResponses(comments []domain.Comment) []diffCommentResponse {
	out := make([]diffCommentResponse, len(comments))
	for i := range comments {
		out[i] = toDiffCommentResponse(&comments[i])
	}

	return out
}

func toScreenshotCommentResponse(c *domain.ScreenshotComment) screenshotCommentResponse {
	return screenshotCommentResponse{
		ID:           c.ID,
		ReviewID:     c.ReviewID,
		ScreenshotID: c.ScreenshotID,
		ReplyToID:    c.ReplyToID,
		X:            c.X,
		Y:            c.Y,
		W:            c.W,
		H:            c.H,
		Text:         c.Text,
		Timestamp:    c.Timestamp,
	}
}

func toScreenshotCommentResponses(comments []domain.ScreenshotComment) []screenshotCommentResponse {
	out := make([]screenshotCommentResponse, len(comments))
	for i := range comments {
		out[i] = toScreenshotCommentResponse(&comments[i])
	}

	return out
}

func toScreenshotResponse(sc *domain.Screenshot) screenshotResponse {
	return screenshotResponse{
		ID:              sc.ID,
		ReviewRequestID: sc.ReviewRequestID,
		Caption:         sc.Caption,
		DraftCaption:    sc.DraftCaption,
		ImagePath:       sc.ImagePath,
	}
}

func toScreenshotResponses(shots []domain.Screenshot) []screenshotResponse {
	out := make([]screenshotResponse, len(shots))
	for i := range shots {
		out[i] = toScreenshotResponse(&shots[i])
	}

	return out
}
