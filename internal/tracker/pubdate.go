package tracker

import (
	"net/mail"
	"strings"
	"time"
)

// TaipeiZone は台北時間（UTC+8 固定、夏時間なし）
var TaipeiZone = time.FixedZone("CST", 8*60*60)

// obsoleteZones は RFC 5322 の obs-zone（北米の略称）と UT/GMT の時差
//
// time.Parse は略称の時差を知らず、ローカルのタイムゾーン名と一致しない限り
// +0000 として扱うため、数値表記に置き換えてから解析する。
var obsoleteZones = map[string]string{
	"UT": "+0000", "GMT": "+0000", "Z": "+0000",
	"EST": "-0500", "EDT": "-0400",
	"CST": "-0600", "CDT": "-0500",
	"MST": "-0700", "MDT": "-0600",
	"PST": "-0800", "PDT": "-0700",
}

// ParsePubDate は RSS の pubDate を台北時間に変換する
//
// RFC 5322 形式（"Mon, 02 Jan 2006 15:04:05 -0700"）のみを受け付ける。
// タイムゾーン表記のない RFC 5322 形式は UTC とみなす。
// ISO 8601 や Unix 時刻など他の形式、空文字は ok=false を返し、
// 呼び出し側は「日付不明」として扱う。
func ParsePubDate(raw string) (time.Time, bool) {
	s := normalizeZone(strings.TrimSpace(raw))
	if s == "" {
		return time.Time{}, false
	}

	if parsed, err := mail.ParseDate(s); err == nil {
		return parsed.In(TaipeiZone), true
	}

	// ゾーンなしの値は +0000 を補い、RFC 5322 の文法に合うものだけ UTC として通す
	if parsed, err := mail.ParseDate(s + " +0000"); err == nil {
		return parsed.In(TaipeiZone), true
	}
	return time.Time{}, false
}

// normalizeZone は末尾の英字タイムゾーン略称を数値表記に置き換える
//
// 一覧にない略称は +0000 とする（時差不明の値を UTC とみなす扱いと揃える）。
func normalizeZone(s string) string {
	i := strings.LastIndexByte(s, ' ')
	if i < 0 {
		return s
	}
	zone := s[i+1:]
	if zone == "" || len(zone) > 5 || !isUpperAlpha(zone) {
		return s
	}
	offset, known := obsoleteZones[zone]
	if !known {
		offset = "+0000"
	}
	return s[:i+1] + offset
}

func isUpperAlpha(s string) bool {
	for _, r := range s {
		if r < 'A' || r > 'Z' {
			return false
		}
	}
	return true
}
