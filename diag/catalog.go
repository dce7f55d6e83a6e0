package diag

import "lea/common"

type template struct {
	severity   common.Severity
	message    string
	suggestion string
}

// Message identifiers. Parameters are positional and replace #1#, #2#, ...
// placeholders in both message and suggestion.
const (
	LinkTargetUndefined         = "linkTargetUndefined"
	LinksNotChecked             = "linksNotChecked"
	EbookNotWellFormed          = "ebookNotWellFormed"
	EbookReadError              = "ebookReadError"
	EbookTitleRequired          = "ebookTitleRequired"
	EbookMultipleTitles         = "ebookMultipleTitles"
	EbookDescriptionRecommended = "ebookDescriptionRecommended"
	EbookMultipleDescriptions   = "ebookMultipleDescriptions"
	EbookPublisherRecommended   = "ebookPublisherRecommended"
	EbookRightsRecommended      = "ebookRightsRecommended"
	EbookMultipleRights         = "ebookMultipleRights"
	EbookLanguageRecommended    = "ebookLanguageRecommended"
	EbookLanguageInvalid        = "ebookLanguageInvalid"
	EbookAuthorRequired         = "ebookAuthorRequired"
	EbookInvalidAuthors         = "ebookInvalidAuthors"
	EbookInvalidDate            = "ebookInvalidDate"
	EbookInvalidContributor     = "ebookInvalidContributor"
	EbookInvalidISBN            = "ebookInvalidISBN"
	EbookMultipleISBNs          = "ebookMultipleISBNs"
	EbookSubjectRecommended     = "ebookSubjectRecommended"
	EbookInvalidCover           = "ebookInvalidCover"
	EbookMultipleCovers         = "ebookMultipleCovers"
	EbookInvalidCollection      = "ebookInvalidCollection"
	TextReadError               = "textReadError"
	TextNotWellFormed           = "textNotWellFormed"
	TextTitleRequired           = "textTitleRequired"
	TextMultipleTitles          = "textMultipleTitles"
	TextAuthorRequired          = "textAuthorRequired"
	TextInvalidAuthors          = "textInvalidAuthors"
	TextMultipleBlurbs          = "textMultipleBlurbs"
	ImageReadError              = "imageReadError"
	StylesheetReadError         = "stylesheetReadError"
	FontReadError               = "fontReadError"
	ExternalLinkCheckFailed     = "externalLinkCheckFailed"
	ExternalLinkCheckTimeout    = "externalLinkCheckTimeout"
	EpubNotChecked              = "epubNotChecked"
	BlockReadError              = "blockReadError"
	ScriptUndefined             = "scriptUndefined"
	SubfolderTagUndefined       = "subfolderTagUndefined"
	CheckEpubFailure            = "checkEpubFailure"
	LinkedImageMissingTo        = "linkedImageMissingTo"
	LinkedImageMissingImage     = "linkedImageMissingImage"
	FileReadSimilar             = "fileReadSimilar"
	IdentifierCollision         = "identifierCollision"
)

const ebookGiven = "\nEbook XML config file name given: "

var catalog = map[string]template{
	LinkTargetUndefined: {common.SeverityFatal,
		"Link to undefined link target.",
		"Check the text content file, making sure the link target exists.\nText file name: #1#\nLink name: '#2#'"},
	LinksNotChecked: {common.SeverityInfo,
		"External links were not checked this time.",
		"To validate them, add --check-links to your command: lea compile --check-links #1#"},
	EbookNotWellFormed: {common.SeverityFatal,
		"The content of the ebook config file is not well formed.",
		"Check the ebook's XML config file in your XML editor of choice." + ebookGiven + "#1#"},
	EbookReadError: {common.SeverityFatal,
		"The ebook XML config file could not be read.",
		"Check for typos in the file name given." + ebookGiven + "#1#"},
	EbookTitleRequired: {common.SeverityFatal,
		"The title is required.",
		"Edit the ebook's XML config file, adding a single <lea:title> tag." + ebookGiven + "#1#"},
	EbookMultipleTitles: {common.SeveritySevere,
		"Multiple title tags defined in ebook.\nUntil this is fixed, the first valid title found is used.\nUsing title: '#1#'",
		"Edit the ebook's XML config file, making sure to use only one <lea:title> tag." + ebookGiven + "#2#"},
	EbookDescriptionRecommended: {common.SeveritySevere,
		"The description is not mandatory, but highly recommended.",
		"Edit the ebook's XML config file, adding a single <lea:description> tag." + ebookGiven + "#1#"},
	EbookMultipleDescriptions: {common.SeveritySevere,
		"Multiple description tags defined in ebook.\nUntil this is fixed, the first valid description found is used.\nUsing description: '#1#'",
		"Edit the ebook's XML config file, making sure to use only one <lea:description> tag." + ebookGiven + "#2#"},
	EbookPublisherRecommended: {common.SeveritySevere,
		"The publisher data is missing or incomplete.",
		"Edit the ebook's XML config file, adding a single <lea:publisher contact=\"...\"> tag with the imprint as its content." + ebookGiven + "#1#"},
	EbookRightsRecommended: {common.SeveritySevere,
		"The rights declaration is not mandatory, but highly recommended.",
		"Edit the ebook's XML config file, adding a single <lea:rights> tag." + ebookGiven + "#1#"},
	EbookMultipleRights: {common.SeveritySevere,
		"Multiple rights tags defined in ebook.\nUntil this is fixed, the first valid rights declaration is used.\nUsing rights declaration: '#1#'",
		"Edit the ebook's XML config file, making sure to use only one <lea:rights> tag." + ebookGiven + "#2#"},
	EbookLanguageRecommended: {common.SeveritySevere,
		"The language declaration is not mandatory, but highly recommended.",
		"Edit the ebook's XML config file, ascertaining a single <lea:language> tag." + ebookGiven + "#1#"},
	EbookLanguageInvalid: {common.SeverityWarning,
		"The language '#1#' is not a well formed BCP 47 language tag.",
		"Edit the ebook's XML config file, using a tag like 'en' or 'de-AT' in <lea:language>." + ebookGiven + "#2#"},
	EbookAuthorRequired: {common.SeverityFatal,
		"At least one author is required.",
		"Edit the ebook's XML config file, adding at least one <lea:author> tag." + ebookGiven + "#1#"},
	EbookInvalidAuthors: {common.SeverityFatal,
		"Invalid author tag(s) detected in ebook.\n#1# valid author definition(s) in total.",
		"Edit the ebook's XML config file, checking all <lea:author> tags." + ebookGiven + "#2#"},
	EbookInvalidDate: {common.SeverityFatal,
		"The date is missing or invalid; possibly multiple date tags declared.",
		"Edit the ebook's XML config file, ascertaining a single <lea:date> tag holding the issue date.\n" +
			"The optional created attribute must be a valid date as well." + ebookGiven + "#1#"},
	EbookInvalidContributor: {common.SeveritySevere,
		"Invalid contributor tag(s) detected in ebook.\n#1# valid contributor(s) in total.",
		"Check the ebook's XML config file for all <lea:contributor> tags.\n" +
			"Most likely cause is an error in the roles attribute, check documentation for permitted roles." + ebookGiven + "#2#"},
	EbookInvalidISBN: {common.SeveritySevere,
		"The ISBN '#1#' is invalid.",
		"Edit the ebook's XML config file, checking the <lea:isbn> tag." + ebookGiven + "'#2#'."},
	EbookMultipleISBNs: {common.SeveritySevere,
		"Multiple ISBN tags defined in ebook.\nUntil this is fixed, the first valid ISBN found is used.\nUsing ISBN: '#1#'",
		"Edit the ebook's XML config file, making sure to use only one <lea:isbn> tag." + ebookGiven + "#2#"},
	EbookSubjectRecommended: {common.SeverityWarning,
		"No subject declarations found in ebook. Declarations are highly recommended.",
		"Edit the ebook XML config file, adding <lea:subject> tags." + ebookGiven + "#1#"},
	EbookInvalidCover: {common.SeverityFatal,
		"The cover file name was defined, but the file cannot be found in the file system.\nCover file name: #1#",
		"Edit the ebook's XML config file, ascertaining the correct cover file name." + ebookGiven + "#2#"},
	EbookMultipleCovers: {common.SeveritySevere,
		"Multiple cover tags defined in ebook.\nUntil this is fixed, the first valid cover declaration is used.\nUsing cover file name: '#1#'",
		"Edit the ebook's XML config file, making sure to use only one <lea:cover> tag." + ebookGiven + "#2#"},
	EbookInvalidCollection: {common.SeverityWarning,
		"The collection declaration is incomplete and will be ignored.",
		"A collection requires its title and the attributes type=\"series\", position and issn." + ebookGiven + "#1#"},
	TextReadError: {common.SeverityFatal,
		"The text content file could not be read.",
		"Check for typos in the file name given in the ebook XML config file.\nText file name given: '#1#'."},
	TextNotWellFormed: {common.SeverityFatal,
		"The content of the text file is not well formed.",
		"Check the text file in your XML editor of choice.\nText file name given: '#1#'."},
	TextTitleRequired: {common.SeverityFatal,
		"The title is required.",
		"Edit the text file, adding a single <lea:title> tag.\nText file name given: '#1#'."},
	TextMultipleTitles: {common.SeveritySevere,
		"Multiple title tags defined in text.\nUntil this is fixed, the first valid title found is used.\nUsing title: '#1#'",
		"Edit the text file, making sure to use only one <lea:title> tag.\nText file name given: '#2#'."},
	TextAuthorRequired: {common.SeverityFatal,
		"At least one author is required.",
		"Edit the text file, adding at least one <lea:author> tag.\nText file name given: '#1#'."},
	TextInvalidAuthors: {common.SeverityFatal,
		"Invalid author tag(s) detected in text.\n#1# valid author definition(s) in total.",
		"Edit the text file, checking all <lea:author> tags.\nText file name given: '#2#'."},
	TextMultipleBlurbs: {common.SeveritySevere,
		"Multiple blurbs found in text.\nContinuing with the first blurb found.\nBlurb being used: '#1#'.",
		"Edit the text file, checking all <lea:blurb> tags.\nText file name given: '#2#'."},
	ImageReadError: {common.SeverityFatal,
		"Number of image tag(s) defined in ebook, but missing in file system: #1#.\nList of file name(s) declared but not found:\n#2#",
		"Check the ebook's XML config file and all text files for missing or incorrect file names." + ebookGiven + "'#3#'"},
	StylesheetReadError: {common.SeverityFatal,
		"The stylesheet '#1#' could not be read.",
		"Check the <lea:stylesheet> tags for typos, and make sure the file exists." + ebookGiven + "'#2#'"},
	FontReadError: {common.SeverityFatal,
		"The font '#1#' could not be read.",
		"Check the <lea:font> tags and url() references in stylesheets, and make sure the file exists." + ebookGiven + "'#2#'"},
	ExternalLinkCheckFailed: {common.SeveritySevere,
		"External link check failed for #1# with HTTP status #2#.",
		"Verify manually or ignore if intentional or temporary."},
	ExternalLinkCheckTimeout: {common.SeverityWarning,
		"Failed to check #1#: #2#",
		"Connection issue or timeout; check again later."},
	EpubNotChecked: {common.SeverityInfo,
		"EPUBCheck was not requested this time.",
		"To run EPUBCheck after ePub generation, add --check-epub to your command: lea compile --check-epub #1#"},
	BlockReadError: {common.SeverityFatal,
		"The block content file could not be read.",
		"Check for typos in the file name, and make sure the file exists.\nBlock file name declared: '#1#'.\nText file name containing block declaration: '#2#'."},
	ScriptUndefined: {common.SeveritySevere,
		"Requested script is not defined.",
		"Check the text content file and Lea documentation to validate the script name.\nScript name invoked: '#1#'\nText file name: #2#"},
	SubfolderTagUndefined: {common.SeveritySevere,
		"Requested tag '#1#' is not defined for subfolders.",
		"Check the ebook configuration file to validate the subfolder tag(s).\nEbook config file name: #2#"},
	CheckEpubFailure: {common.SeveritySevere,
		"EPUBCheck returned an error code.",
		"EPUBCheck summary message:\n#1#\nEPUBCheck detailed error messages:\n#2#"},
	LinkedImageMissingTo: {common.SeverityFatal,
		"Script 'linked image' is missing the mandatory 'to' attribute.",
		"Add the attribute 'to'.\nText file name: #1#"},
	LinkedImageMissingImage: {common.SeverityFatal,
		"Script 'linked image' is missing the mandatory 'image' attribute.",
		"Add the attribute 'image'.\nText file name: #1#"},
	FileReadSimilar: {common.SeveritySevere,
		"File not found, reading a similar file.",
		"File names on this operating system are case-sensitive. Check for exact spelling of the file name given.\n" +
			"File name provided: #1#.\nFile name read:     #2#."},
	IdentifierCollision: {common.SeverityFatal,
		"Different #1# names produce the same package name '#4#'.",
		"Rename one of them so their normalized forms differ.\nFirst name: '#2#'\nSecond name: '#3#'"},
}
