package domain

import "errors"

var (
	ErrPostNotFound      = errors.New("election post not found")
	ErrPostClosed        = errors.New("election post is not open for voting")
	ErrCandidateNotFound = errors.New("candidate not found")
	ErrInvalidCandidate  = errors.New("candidate does not belong to this post")
	ErrCandidateInactive = errors.New("candidate is not active")
	ErrVoterNotFound     = errors.New("voter not found")
	ErrDuplicateVote     = errors.New("voter has already cast a vote for this post")
	ErrVoteNotFound      = errors.New("vote not found")
	ErrReceiptNotFound   = errors.New("receipt not found")
	ErrBackupNotFound    = errors.New("backup snapshot not found")
	ErrBackupIncomplete  = errors.New("backup snapshot is not complete")
	ErrChecksumMismatch  = errors.New("backup snapshot checksum mismatch")
	ErrForbidden         = errors.New("insufficient permissions")
	ErrInternal          = errors.New("internal server error")
)
