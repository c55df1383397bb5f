package http

type createReviewRequestRequest struct {
	Repository string `json:"repository" validate:"required,max=255"`
	SubmitAs   string `json:"submit_as" validate:"omitempty,username,max=100"`
	ChangeNum  *int64 `json:"changenum" validate:"omitempty,min=1"`
}

type closeReviewRequestRequest struct {
	Status string `json:"status" validate:"required,oneof=submitted discarded"`
}

type updateDraftRequest struct {
	Fields     map[string]string `json:"fields" validate:"required"`
	AlwaysSave bool              `json:"always_save"`
}

type updateReviewRequest struct {
	ShipIt     *bool   `json:"ship_it"`
	BodyTop    *string `json:"body_top"`
	BodyBottom *string `json:"body_bottom"`
}

type uploadDiffRequest struct {
	// Path carries the unified diff text, ParentDiff an optional diff the
	// main one is relative to.
	Path       string `json:"path" validate:"required"`
	ParentDiff string `json:"parent_diff_path"`
}

type uploadScreenshotRequest struct {
	Caption string `json:"caption" validate:"max=255"`
	// File carries the base64-encoded image bytes.
	File string `json:"file" validate:"required"`
}

type createDiffCommentRequest struct {
	FileDiffID      int64  `json:"filediff_id" validate:"required_without=ReplyToID"`
	InterFileDiffID *int64 `json:"interfilediff_id"`
	ReplyToID       *int64 `json:"reply_to_id"`
	FirstLine       int    `json:"first_line" validate:"min=0"`
	NumLines        int    `json:"num_lines" validate:"required_without=ReplyToID,omitempty,min=1"`
	Text            string `json:"text" validate:"required"`
}

type createScreenshotCommentRequest struct {
	ScreenshotID int64  `json:"screenshot_id" validate:"required_without=ReplyToID"`
	ReplyToID    *int64 `json:"reply_to_id"`
	X            int    `json:"x" validate:"min=0"`
	Y            int    `json:"y" validate:"min=0"`
	W            int    `json:"w" validate:"required_without=ReplyToID,omitempty,min=1"`
	H            int    `json:"h" validate:"required_without=ReplyToID,omitempty,min=1"`
	Text         string `json:"text" validate:"required"`
}
