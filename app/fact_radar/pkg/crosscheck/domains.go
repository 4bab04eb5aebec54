package crosscheck

import (
	"net/url"
	"strings"
)

// TrustedDomains 可作为佐证来源的新闻站点，顺序决定分块与查询顺序
var TrustedDomains = []string{
	"cnn.com",
	"bbc.com",
	"reuters.com",
	"rappler.com",
	"abs-cbn.com",
	"inquirer.net",
	"newsinfo.inquirer.net",
	"gmanetwork.com",
	"philstar.com",
	"mb.com.ph",
	"manilatimes.net",
	"pna.gov.ph",
	"politiko.com.ph",
	"malaya.com.ph",
	"msn.com",
	"news.google.com",
	"apnews.com",
	"theguardian.com",
}

var trustedSet = func() map[string]struct{} {
	m := make(map[string]struct{}, len(TrustedDomains))
	for _, d := range TrustedDomains {
		m[d] = struct{}{}
	}
	return m
}()

// IsTrusted 精确匹配白名单
func IsTrusted(domain string) bool {
	_, ok := trustedSet[domain]
	return ok
}

// Chunk 按 size 切分域名列表
func Chunk(domains []string, size int) [][]string {
	if size <= 0 {
		size = len(domains)
	}
	var chunks [][]string
	for i := 0; i < len(domains); i += size {
		end := min(i+size, len(domains))
		chunks = append(chunks, domains[i:end])
	}
	return chunks
}

// DomainOf 提取小写主机名并去掉 www. 前缀，解析失败返回空串
func DomainOf(link string) string {
	link = strings.TrimSpace(link)
	if link == "" {
		return ""
	}
	u, err := url.Parse(link)
	if err != nil {
		return ""
	}
	host := strings.ToLower(u.Hostname())
	return strings.TrimPrefix(host, "www.")
}

// subsumes 原文域名是否覆盖整个分块（原文就在该分块的站点上）
func subsumes(orig string, chunk []string) bool {
	if orig == "" {
		return false
	}
	for _, d := range chunk {
		if d != orig && !strings.HasSuffix(orig, "."+d) {
			return false
		}
	}
	return true
}

// orQuery 构造 "<query> site:a OR site:b" 查询
func orQuery(query string, chunk []string) string {
	sites := make([]string, len(chunk))
	for i, d := range chunk {
		sites[i] = "site:" + d
	}
	return query + " " + strings.Join(sites, " OR ")
}
