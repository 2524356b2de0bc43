package tui

import "archfeed/internal/model"

// fetchedMsg is sent when a FetchMore call returns.
type fetchedMsg struct {
	added int
	err   error
}

// validatedMsg is sent when the card for pageID finished its check.
type validatedMsg struct {
	pageID int
}

type sharedMsg struct {
	err error
}

type readMsg struct {
	reading *model.Reading
	err     error
}

type resetMsg struct {
	err error
}

// NoticeMsg carries a user-facing notice from outside the program,
// such as the clipboard confirmation.
type NoticeMsg string
