// Package presets provides predefined cookie and script templates for
// common third-party tracking services.
package presets

import (
	"sort"
	"strings"
)

const serviceIDPlaceholder = "{{SERVICE_ID}}"

// PresetCookie describes one cookie a preset service sets.
type PresetCookie struct {
	Name    string `json:"name"`
	Purpose string `json:"purpose"`
	Expiry  string `json:"expiry"`
}

// Preset is a template for a well-known third-party service: the category
// it belongs in, the cookies it sets and its loader script with the
// service account ID left as a placeholder.
type Preset struct {
	Identifier       string         `json:"id"`
	Name             string         `json:"name"`
	Description      string         `json:"description"`
	Category         string         `json:"category"`
	PrivacyPolicyURL string         `json:"privacyPolicyUrl"`
	ScriptTemplate   string         `json:"scriptTemplate,omitempty"`
	Cookies          []PresetCookie `json:"cookies"`
}

// Script returns the preset's loader script with the service account ID
// substituted in. Empty for presets without a script.
func (p *Preset) Script(serviceID string) string {
	if p.ScriptTemplate == "" {
		return ""
	}
	return strings.ReplaceAll(p.ScriptTemplate, serviceIDPlaceholder, serviceID)
}

// Catalog is the read-only preset registry.
type Catalog struct {
	presets map[string]Preset
}

// NewCatalog returns the built-in preset catalog
func NewCatalog() *Catalog {
	catalog := &Catalog{presets: make(map[string]Preset, len(builtin))}
	for _, preset := range builtin {
		catalog.presets[preset.Identifier] = preset
	}
	return catalog
}

// Get returns the preset with the given identifier, or nil when it does
// not exist.
func (c *Catalog) Get(identifier string) *Preset {
	preset, ok := c.presets[identifier]
	if !ok {
		return nil
	}
	return &preset
}

// List returns all presets sorted by identifier
func (c *Catalog) List() []Preset {
	list := make([]Preset, 0, len(c.presets))
	for _, preset := range c.presets {
		list = append(list, preset)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Identifier < list[j].Identifier })
	return list
}

// Identifiers returns all preset identifiers sorted alphabetically
func (c *Catalog) Identifiers() []string {
	ids := make([]string, 0, len(c.presets))
	for id := range c.presets {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

var builtin = []Preset{
	{
		Identifier:       "google_analytics",
		Name:             "Google Analytics",
		Description:      "Web analytics service that tracks and reports website traffic",
		Category:         "analytics",
		PrivacyPolicyURL: "https://policies.google.com/privacy",
		ScriptTemplate: `<!-- Google Analytics -->
<script async src="https://www.googletagmanager.com/gtag/js?id={{SERVICE_ID}}"></script>
<script>
  window.dataLayer = window.dataLayer || [];
  function gtag(){dataLayer.push(arguments);}
  gtag('js', new Date());
  gtag('config', '{{SERVICE_ID}}');
</script>`,
		Cookies: []PresetCookie{
			{Name: "_ga", Purpose: "Registers a unique ID used to generate statistical data on how you use the website", Expiry: "2 years"},
			{Name: "_gid", Purpose: "Registers a unique ID used to generate statistical data on how you use the website", Expiry: "24 hours"},
			{Name: "_gat", Purpose: "Used by Google Analytics to throttle request rate", Expiry: "1 minute"},
		},
	},
	{
		Identifier:       "google_tag_manager",
		Name:             "Google Tag Manager",
		Description:      "Tag management system that allows you to quickly update tags and code snippets",
		Category:         "analytics",
		PrivacyPolicyURL: "https://policies.google.com/privacy",
		ScriptTemplate: `<!-- Google Tag Manager -->
<script>(function(w,d,s,l,i){w[l]=w[l]||[];w[l].push({'gtm.start':
new Date().getTime(),event:'gtm.js'});var f=d.getElementsByTagName(s)[0],
j=d.createElement(s),dl=l!='dataLayer'?'&l='+l:'';j.async=true;j.src=
'https://www.googletagmanager.com/gtm.js?id='+i+dl;f.parentNode.insertBefore(j,f);
})(window,document,'script','dataLayer','{{SERVICE_ID}}');</script>
<!-- End Google Tag Manager -->`,
		Cookies: []PresetCookie{
			{Name: "_ga", Purpose: "Registers a unique ID used to generate statistical data", Expiry: "2 years"},
			{Name: "_gid", Purpose: "Registers a unique ID used to generate statistical data", Expiry: "24 hours"},
		},
	},
	{
		Identifier:       "facebook_pixel",
		Name:             "Facebook Pixel",
		Description:      "Analytics tool that helps measure the effectiveness of advertising",
		Category:         "marketing",
		PrivacyPolicyURL: "https://www.facebook.com/privacy/policy/",
		ScriptTemplate: `<!-- Facebook Pixel -->
<script>
!function(f,b,e,v,n,t,s)
{if(f.fbq)return;n=f.fbq=function(){n.callMethod?
n.callMethod.apply(n,arguments):n.queue.push(arguments)};
if(!f._fbq)f._fbq=n;n.push=n;n.loaded=!0;n.version='2.0';
n.queue=[];t=b.createElement(e);t.async=!0;
t.src=v;s=b.getElementsByTagName(e)[0];
s.parentNode.insertBefore(t,s)}(window, document,'script',
'https://connect.facebook.net/en_US/fbevents.js');
fbq('init', '{{SERVICE_ID}}');
fbq('track', 'PageView');
</script>
<noscript><img height="1" width="1" style="display:none"
src="https://www.facebook.com/tr?id={{SERVICE_ID}}&ev=PageView&noscript=1"
/></noscript>
<!-- End Facebook Pixel -->`,
		Cookies: []PresetCookie{
			{Name: "_fbp", Purpose: "Used by Facebook to deliver advertising and measure and improve the relevance of ads", Expiry: "3 months"},
			{Name: "fr", Purpose: "Contains browser and user unique ID combination for targeted advertising", Expiry: "3 months"},
		},
	},
	{
		Identifier:       "hotjar",
		Name:             "Hotjar",
		Description:      "Analytics and feedback tool that reveals user behavior",
		Category:         "analytics",
		PrivacyPolicyURL: "https://www.hotjar.com/legal/policies/privacy/",
		ScriptTemplate: `<!-- Hotjar -->
<script>
    (function(h,o,t,j,a,r){
        h.hj=h.hj||function(){(h.hj.q=h.hj.q||[]).push(arguments)};
        h._hjSettings={hjid:{{SERVICE_ID}},hjsv:6};
        a=o.getElementsByTagName('head')[0];
        r=o.createElement('script');r.async=1;
        r.src=t+h._hjSettings.hjid+j+h._hjSettings.hjsv;
        a.appendChild(r);
    })(window,document,'https://static.hotjar.com/c/hotjar-','.js?sv=');
</script>
<!-- End Hotjar -->`,
		Cookies: []PresetCookie{
			{Name: "_hjSessionUser_*", Purpose: "Set when a user first lands on a page. Persists the Hotjar User ID", Expiry: "1 year"},
			{Name: "_hjSession_*", Purpose: "Holds current session data", Expiry: "30 minutes"},
		},
	},
	{
		Identifier:       "linkedin_insight",
		Name:             "LinkedIn Insight Tag",
		Description:      "Analytics tool for LinkedIn advertising campaigns",
		Category:         "marketing",
		PrivacyPolicyURL: "https://www.linkedin.com/legal/privacy-policy",
		ScriptTemplate: `<!-- LinkedIn Insight Tag -->
<script type="text/javascript">
_linkedin_partner_id = "{{SERVICE_ID}}";
window._linkedin_data_partner_ids = window._linkedin_data_partner_ids || [];
window._linkedin_data_partner_ids.push(_linkedin_partner_id);
</script><script type="text/javascript">
(function(l) {
if (!l){window.lintrk = function(a,b){window.lintrk.q.push([a,b])};
window.lintrk.q=[]}
var s = document.getElementsByTagName("script")[0];
var b = document.createElement("script");
b.type = "text/javascript";b.async = true;
b.src = "https://snap.licdn.com/li.lms-analytics/insight.min.js";
s.parentNode.insertBefore(b, s);})(window.lintrk);
</script>
<noscript>
<img height="1" width="1" style="display:none;" alt="" src="https://px.ads.linkedin.com/collect/?pid={{SERVICE_ID}}&fmt=gif" />
</noscript>
<!-- End LinkedIn Insight Tag -->`,
		Cookies: []PresetCookie{
			{Name: "li_sugr", Purpose: "Used to make a probabilistic match of a user's identity", Expiry: "90 days"},
			{Name: "UserMatchHistory", Purpose: "LinkedIn Ads ID syncing", Expiry: "30 days"},
		},
	},
	{
		Identifier:       "youtube",
		Name:             "YouTube",
		Description:      "Video hosting and sharing platform",
		Category:         "marketing",
		PrivacyPolicyURL: "https://policies.google.com/privacy",
		Cookies: []PresetCookie{
			{Name: "VISITOR_INFO1_LIVE", Purpose: "Tries to estimate users' bandwidth on pages with integrated YouTube videos", Expiry: "179 days"},
			{Name: "YSC", Purpose: "Registers a unique ID to keep statistics of what videos from YouTube the user has seen", Expiry: "Session"},
			{Name: "yt-remote-device-id", Purpose: "Stores the user's video player preferences using embedded YouTube video", Expiry: "Persistent"},
		},
	},
}
