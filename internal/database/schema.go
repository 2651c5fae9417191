package database

// schema creates the report tables if they do not exist.
const schema = `
CREATE TABLE IF NOT EXISTS website_reports (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	user_id TEXT NOT NULL,
	url TEXT NOT NULL,
	pages INTEGER NOT NULL DEFAULT 0,
	content_hash TEXT NOT NULL DEFAULT '',
	created_at TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_website_user_created ON website_reports(user_id, created_at);

CREATE TABLE IF NOT EXISTS page_reports (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	website_id INTEGER NOT NULL UNIQUE REFERENCES website_reports(id) ON DELETE CASCADE,
	user_id TEXT NOT NULL,
	page_size REAL NOT NULL DEFAULT 0,
	num_images INTEGER NOT NULL DEFAULT 0,
	num_videos INTEGER NOT NULL DEFAULT 0,
	num_external_resources INTEGER NOT NULL DEFAULT 0,
	num_internal_links INTEGER NOT NULL DEFAULT 0,
	num_external_links INTEGER NOT NULL DEFAULT 0,
	num_social_media_links INTEGER NOT NULL DEFAULT 0,
	total_css_size REAL NOT NULL DEFAULT 0,
	total_js_size REAL NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS image_reports (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	page_id INTEGER NOT NULL UNIQUE REFERENCES page_reports(id) ON DELETE CASCADE,
	user_id TEXT NOT NULL,
	total_size REAL NOT NULL DEFAULT 0,
	format TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS video_reports (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	page_id INTEGER NOT NULL UNIQUE REFERENCES page_reports(id) ON DELETE CASCADE,
	user_id TEXT NOT NULL,
	total_size REAL NOT NULL DEFAULT 0,
	format TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS carbon_footprint_reports (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	page_id INTEGER NOT NULL UNIQUE REFERENCES page_reports(id) ON DELETE CASCADE,
	user_id TEXT NOT NULL,
	total_energy_usage REAL NOT NULL DEFAULT 0,
	carbon_footprint_score REAL NOT NULL DEFAULT 0,
	carbon_footprint_images REAL NOT NULL DEFAULT 0,
	carbon_footprint_videos REAL NOT NULL DEFAULT 0,
	carbon_footprint_other REAL NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_carbon_energy ON carbon_footprint_reports(user_id, total_energy_usage);
`

// Tables lists the report tables in write order.
var Tables = []string{
	"website_reports",
	"page_reports",
	"image_reports",
	"video_reports",
	"carbon_footprint_reports",
}

const (
	// imageFormat and videoFormat are recorded on the sub-records.
	imageFormat = "jpeg"
	videoFormat = "mp4"
)
