package config

const (
	// MinSessionSecretLength is the minimum HMAC key size for session tokens.
	MinSessionSecretLength = 32

	// Username bounds. Short enough to show in headers, long enough for pen names.
	MinUsernameLength = 3
	MaxUsernameLength = 50

	// MaxEmailLength matches the common VARCHAR(255) limit.
	MaxEmailLength = 255

	// MinPasswordLength is the minimum accepted password length.
	MinPasswordLength = 6

	// MaxPasswordLength is bcrypt's input limit; longer inputs are rejected
	// rather than silently truncated.
	MaxPasswordLength = 72

	MaxCharacterNameLength = 100
	MaxCharacterRoleLength = 100
	MaxCharacterAge        = 100000

	MaxChapterTitleLength = 255

	MaxEventTitleLength = 255
	MaxEventDateLength  = 50

	MaxRelationshipTypeLength = 50

	// MaxPromptLength bounds the text forwarded to the generation provider.
	MaxPromptLength = 4000
)
