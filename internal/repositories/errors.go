package repositories

import "errors"

var (
	// ErrSettingNotFound indicates the settings store has no entry for the key.
	ErrSettingNotFound = errors.New("settings repository: key not found")
	// ErrUnitNotFound indicates the referenced shared unit does not exist.
	ErrUnitNotFound = errors.New("unit repository: unit not found")
	// ErrRedirectConflict indicates a redirect already exists for the source path.
	ErrRedirectConflict = errors.New("redirect repository: source already registered")
	// ErrNotifyAlreadySent indicates the stock notification request was already marked sent.
	ErrNotifyAlreadySent = errors.New("stock notify repository: request already sent")
)
