package constants

const (
	// Page property names in the diary database
	PropertyTitle         = "Name"
	PropertyTags          = "Tags"
	PropertyS             = "S"
	PropertySleepSeparate = "Sleep separate"
	PropertyTears         = "Tears"
	PropertyPhotos        = "Photos"

	// Section headings written into each page
	HeadingMemorable = "How was the day?"
	HeadingGrateful  = "Grateful for"
	HeadingWorries   = "Worries"
	HeadingPhotos    = "Pics"

	// Default settings values
	DefaultTimezone = "Local"
)
