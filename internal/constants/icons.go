package constants

// DefaultIconRanges lists the code point ranges accepted as a page icon.
// Each element is "LOW-HIGH" or a single code point, hexadecimal.
const DefaultIconRanges = "1F600-1F64F," + // emoticons
	"1F300-1F5FF," + // symbols & pictographs
	"1F680-1F6FF," + // transport & map symbols
	"1F700-1F77F," + // alchemical symbols
	"1F780-1F7FF," + // geometric shapes extended
	"1F800-1F8FF," + // supplemental arrows-c
	"1F900-1F9FF," + // supplemental symbols and pictographs
	"1FA00-1FA6F," + // chess symbols
	"1FA70-1FAFF," + // symbols and pictographs extended-a
	"2702-27B0," + // dingbats
	"2600-26FF," + // miscellaneous symbols
	"24C2," + // circled M
	"1F170-1F251" // enclosed alphanumeric and ideographic supplements
