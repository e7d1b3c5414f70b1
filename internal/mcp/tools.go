package mcp

import "github.com/mark3labs/mcp-go/mcp"

var deeplinkToolDef = mcp.NewTool("share_deeplink",
	mcp.WithDescription("Resolve a web URL to its iOS and Android native app URIs. Unrecognized URLs return platform \"unknown\" with null URIs."),
	mcp.WithString("url", mcp.Required(), mcp.Description("Web URL to resolve")),
	mcp.WithReadOnlyHintAnnotation(true),
)

var detectPlatformToolDef = mcp.NewTool("share_detect_platform",
	mcp.WithDescription("Return the platform tag (youtube, spotify, ...) a URL belongs to."),
	mcp.WithString("url", mcp.Required(), mcp.Description("URL to classify")),
	mcp.WithReadOnlyHintAnnotation(true),
)

var detectOSToolDef = mcp.NewTool("share_detect_os",
	mcp.WithDescription("Classify a user agent as ios, android, or desktop. Without user_agent, classifies this server's host."),
	mcp.WithString("user_agent", mcp.Description("User agent string")),
	mcp.WithReadOnlyHintAnnotation(true),
)

var socialURLToolDef = mcp.NewTool("share_social_url",
	mcp.WithDescription("Build a social network web-share URL. Each platform only honors its own subset of fields; others are ignored."),
	mcp.WithString("platform", mcp.Required(), mcp.Description("x, twitter, facebook, linkedin, reddit, whatsapp, telegram, email, instagram, or snapchat")),
	mcp.WithString("url", mcp.Description("Link to share")),
	mcp.WithString("title", mcp.Description("Title (reddit, email subject)")),
	mcp.WithString("text", mcp.Description("Message text")),
	mcp.WithString("via", mcp.Description("Twitter handle to attribute")),
	mcp.WithArray("hashtags", mcp.Description("Hashtags without #"), mcp.WithStringItems()),
	mcp.WithReadOnlyHintAnnotation(true),
)

var socialPlatformsToolDef = mcp.NewTool("share_social_platforms",
	mcp.WithDescription("List social share platforms with their labels and supported fields, in share-sheet order."),
	mcp.WithReadOnlyHintAnnotation(true),
)

var openLinkToolDef = mcp.NewTool("share_open_link",
	mcp.WithDescription("Open a link on this machine: the native app URI first on mobile hosts, then the web URL after a delay. The web fallback fires even if the app opened."),
	mcp.WithString("url", mcp.Required(), mcp.Description("Web URL to open")),
	mcp.WithBoolean("fallback_to_web", mcp.Description("Open the web URL after the native attempt (default: config)")),
	mcp.WithNumber("fallback_delay_ms", mcp.Description("Delay before the web fallback (default: config)")),
	mcp.WithBoolean("open_in_new_tab", mcp.Description("Open the web URL in a new window (default: config)")),
	mcp.WithBoolean("dry_run", mcp.Description("Return the plan without navigating")),
)

var sendToolDef = mcp.NewTool("share_send",
	mcp.WithDescription("Share a payload through the best available channel: the native share sheet if available, otherwise the configured fallback (clipboard by default)."),
	mcp.WithString("url", mcp.Description("URL to share")),
	mcp.WithString("title", mcp.Description("Title")),
	mcp.WithString("text", mcp.Description("Text to share; copied instead of the URL by the clipboard fallback")),
	mcp.WithString("id", mcp.Description("Caller id remembered briefly after success; never stored")),
)

var copyToolDef = mcp.NewTool("share_copy",
	mcp.WithDescription("Copy text to the clipboard."),
	mcp.WithString("text", mcp.Required(), mcp.Description("Text to copy")),
)

var historyListToolDef = mcp.NewTool("history_list",
	mcp.WithDescription("List recorded share events, newest first."),
	mcp.WithString("platform", mcp.Description("Filter by platform tag")),
	mcp.WithBoolean("ok", mcp.Description("Filter by outcome")),
	mcp.WithNumber("limit", mcp.Description("Max items (default 20, max 100)")),
	mcp.WithNumber("offset", mcp.Description("Pagination offset")),
	mcp.WithReadOnlyHintAnnotation(true),
)

var historyFetchToolDef = mcp.NewTool("history_fetch",
	mcp.WithDescription("Fetch one recorded share event by id."),
	mcp.WithString("id", mcp.Required(), mcp.Description("Event ULID")),
	mcp.WithReadOnlyHintAnnotation(true),
)

var historyPurgeToolDef = mcp.NewTool("history_purge",
	mcp.WithDescription("Permanently delete recorded share events."),
	mcp.WithNumber("older_than_days", mcp.Description("Only purge events older than N days")),
	mcp.WithDestructiveHintAnnotation(true),
)
