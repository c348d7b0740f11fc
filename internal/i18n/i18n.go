// Package i18n provides the localized strings used by toasts and chrome.
package i18n

// Table resolves message keys for one language. Unknown languages fall back
// to English, unknown keys to the key itself so a miss stays visible.
type Table struct {
	lang string
}

func New(lang string) Table {
	if _, ok := messages[lang]; !ok {
		lang = "en"
	}
	return Table{lang: lang}
}

func (t Table) T(key string) string {
	if msg, ok := messages[t.lang][key]; ok {
		return msg
	}
	if msg, ok := messages["en"][key]; ok {
		return msg
	}
	return key
}

var messages = map[string]map[string]string{
	"en": {
		"viewer_loading":     "Loading artwork...",
		"download_started":   "Download started",
		"download_busy":      "The last task is not finished yet",
		"bookmarking":        "Adding bookmark...",
		"bookmarked":         "Bookmarked",
		"fullscreen_hint":    "f: fullscreen | d: download | alt+b: bookmark",
		"host_prev_work":     "Previous work",
		"host_next_work":     "Next work",
		"download_control":   "Download this work",
		"bookmark_control":   "Bookmark this work",
		"one_to_one_control": "View at actual size",
	},
	"ja": {
		"viewer_loading":     "読み込み中...",
		"download_started":   "ダウンロードを開始しました",
		"download_busy":      "前回のタスクが完了していません",
		"bookmarking":        "ブックマーク中...",
		"bookmarked":         "ブックマークしました",
		"fullscreen_hint":    "f: 全画面 | d: ダウンロード | alt+b: ブックマーク",
		"host_prev_work":     "前の作品",
		"host_next_work":     "次の作品",
		"download_control":   "作品をダウンロード",
		"bookmark_control":   "作品をブックマーク",
		"one_to_one_control": "原寸で表示",
	},
}
