package providers

import (
	"net/http"

	"golang.org/x/oauth2"
)

const (
	atlassianAuthURL   = "https://auth.atlassian.com/authorize"
	atlassianTokenURL  = "https://auth.atlassian.com/oauth/token"
	atlassianResources = "https://api.atlassian.com/oauth/token/accessible-resources"
	notionVersion      = "2022-06-28"
)

var jsonContent = map[string]string{"Content-Type": "application/json"}

// getProbe is a single authenticated GET
func getProbe(testType, description, url string) Probe {
	return Probe{
		Type:        testType,
		Description: description,
		Steps:       []ProbeStep{{Method: http.MethodGet, URL: url}},
	}
}

// atlassianProbe resolves the cloud id first, then calls the site API
func atlassianProbe(testType, description, url string) Probe {
	return Probe{
		Type:        testType,
		Description: description,
		Steps: []ProbeStep{
			{
				Method:  http.MethodGet,
				URL:     atlassianResources,
				Capture: map[string]string{"cloud_id": "0.id"},
			},
			{Method: http.MethodGet, URL: url},
		},
	}
}

func builtin() []*Descriptor {
	return []*Descriptor{
		{
			ID:            "github",
			Name:          "GitHub",
			AuthURL:       "https://github.com/login/oauth/authorize",
			TokenURL:      "https://github.com/login/oauth/access_token",
			AuthStyle:     oauth2.AuthStyleInParams,
			DefaultScopes: "read:user repo",
			Probes: []Probe{
				getProbe("user", "Authenticated user", "https://api.github.com/user"),
				getProbe("repos", "First repositories", "https://api.github.com/user/repos?per_page=5"),
			},
		},
		{
			ID:            "gitlab",
			Name:          "GitLab",
			AuthURL:       "https://gitlab.com/oauth/authorize",
			TokenURL:      "https://gitlab.com/oauth/token",
			AuthStyle:     oauth2.AuthStyleInParams,
			DefaultScopes: "read_user read_api",
			Probes: []Probe{
				getProbe("user", "Authenticated user", "https://gitlab.com/api/v4/user"),
				getProbe(
					"projects",
					"Member projects",
					"https://gitlab.com/api/v4/projects?membership=true&per_page=5",
				),
			},
		},
		{
			ID:            "bitbucket",
			Name:          "Bitbucket",
			AuthURL:       "https://bitbucket.org/site/oauth2/authorize",
			TokenURL:      "https://bitbucket.org/site/oauth2/access_token",
			AuthStyle:     oauth2.AuthStyleInHeader,
			DefaultScopes: "account repository",
			Probes: []Probe{
				getProbe("user", "Authenticated user", "https://api.bitbucket.org/2.0/user"),
				getProbe(
					"repos",
					"Member repositories",
					"https://api.bitbucket.org/2.0/repositories?role=member&pagelen=5",
				),
			},
		},
		{
			ID:            "slack",
			Name:          "Slack",
			AuthURL:       "https://slack.com/oauth/v2/authorize",
			TokenURL:      "https://slack.com/api/oauth.v2.access",
			AuthStyle:     oauth2.AuthStyleInParams,
			DefaultScopes: "channels:read,chat:write,users:read",
			ExtraKeys:     []string{"team", "bot_user_id", "app_id", "authed_user"},
			Normalize:     NormalizeSlack,
			Probes: []Probe{
				{
					Type:        "auth",
					Description: "auth.test",
					Steps: []ProbeStep{{
						Method:  http.MethodPost,
						URL:     "https://slack.com/api/auth.test",
						OKField: "ok",
					}},
				},
				{
					Type:        "channels",
					Description: "First conversations",
					Steps: []ProbeStep{{
						Method:  http.MethodGet,
						URL:     "https://slack.com/api/conversations.list?limit=5",
						OKField: "ok",
					}},
				},
			},
		},
		{
			ID:            "google",
			Name:          "Google",
			AuthURL:       "https://accounts.google.com/o/oauth2/v2/auth",
			TokenURL:      "https://oauth2.googleapis.com/token",
			AuthStyle:     oauth2.AuthStyleInParams,
			DefaultScopes: "openid email profile https://www.googleapis.com/auth/drive.readonly",
			AuthParams:    map[string]string{"access_type": "offline", "prompt": "consent"},
			ExtraKeys:     []string{"id_token"},
			Probes: []Probe{
				getProbe("user", "OpenID userinfo", "https://www.googleapis.com/oauth2/v3/userinfo"),
				getProbe("drive", "First Drive files", "https://www.googleapis.com/drive/v3/files?pageSize=5"),
			},
		},
		{
			ID:            "microsoft",
			Name:          "Microsoft",
			AuthURL:       "https://login.microsoftonline.com/common/oauth2/v2.0/authorize",
			TokenURL:      "https://login.microsoftonline.com/common/oauth2/v2.0/token",
			AuthStyle:     oauth2.AuthStyleInParams,
			DefaultScopes: "offline_access User.Read",
			ExtraKeys:     []string{"id_token"},
			Probes: []Probe{
				getProbe("user", "Graph /me", "https://graph.microsoft.com/v1.0/me"),
			},
		},
		{
			ID:            "jira",
			Name:          "Jira",
			AuthURL:       atlassianAuthURL,
			TokenURL:      atlassianTokenURL,
			AuthStyle:     oauth2.AuthStyleInParams,
			DefaultScopes: "read:jira-user read:jira-work offline_access",
			AuthParams:    map[string]string{"audience": "api.atlassian.com", "prompt": "consent"},
			EnvPrefixes:   []string{"JIRA", "ATLASSIAN"},
			Probes: []Probe{
				atlassianProbe(
					"user",
					"Current Jira user",
					"https://api.atlassian.com/ex/jira/{cloud_id}/rest/api/3/myself",
				),
				atlassianProbe(
					"projects",
					"First Jira projects",
					"https://api.atlassian.com/ex/jira/{cloud_id}/rest/api/3/project/search?maxResults=5",
				),
			},
		},
		{
			ID:            "confluence",
			Name:          "Confluence",
			AuthURL:       atlassianAuthURL,
			TokenURL:      atlassianTokenURL,
			AuthStyle:     oauth2.AuthStyleInParams,
			DefaultScopes: "read:confluence-space.summary read:confluence-user offline_access",
			AuthParams:    map[string]string{"audience": "api.atlassian.com", "prompt": "consent"},
			EnvPrefixes:   []string{"CONFLUENCE", "ATLASSIAN"},
			Probes: []Probe{
				atlassianProbe(
					"spaces",
					"First Confluence spaces",
					"https://api.atlassian.com/ex/confluence/{cloud_id}/wiki/rest/api/space?limit=5",
				),
				atlassianProbe(
					"user",
					"Current Confluence user",
					"https://api.atlassian.com/ex/confluence/{cloud_id}/wiki/rest/api/user/current",
				),
			},
		},
		{
			ID:            "salesforce",
			Name:          "Salesforce",
			AuthURL:       "https://login.salesforce.com/services/oauth2/authorize",
			TokenURL:      "https://login.salesforce.com/services/oauth2/token",
			AuthStyle:     oauth2.AuthStyleInParams,
			DefaultScopes: "api refresh_token",
			ExtraKeys:     []string{"instance_url", "id", "issued_at", "signature"},
			Probes: []Probe{
				getProbe("user", "OpenID userinfo", "{instance_url}/services/oauth2/userinfo"),
				getProbe("limits", "Org limits", "{instance_url}/services/data/v59.0/limits"),
			},
		},
		{
			ID:            "hubspot",
			Name:          "HubSpot",
			AuthURL:       "https://app.hubspot.com/oauth/authorize",
			TokenURL:      "https://api.hubapi.com/oauth/v1/token",
			AuthStyle:     oauth2.AuthStyleInParams,
			DefaultScopes: "oauth crm.objects.contacts.read",
			Probes: []Probe{
				{
					Type:        "token",
					Description: "Access token metadata",
					Steps: []ProbeStep{{
						Method:     http.MethodGet,
						URL:        "https://api.hubapi.com/oauth/v1/access-tokens/{access_token}",
						AuthScheme: AuthNone,
					}},
				},
				getProbe(
					"contacts",
					"First contacts",
					"https://api.hubapi.com/crm/v3/objects/contacts?limit=5",
				),
			},
		},
		{
			ID:         "notion",
			Name:       "Notion",
			AuthURL:    "https://api.notion.com/v1/oauth/authorize",
			TokenURL:   "https://api.notion.com/v1/oauth/token",
			AuthStyle:  oauth2.AuthStyleInHeader,
			AuthParams: map[string]string{"owner": "user"},
			ExtraKeys:  []string{"workspace_id", "workspace_name", "bot_id"},
			Probes: []Probe{
				{
					Type:        "user",
					Description: "Integration bot user",
					Steps: []ProbeStep{{
						Method:  http.MethodGet,
						URL:     "https://api.notion.com/v1/users/me",
						Headers: map[string]string{"Notion-Version": notionVersion},
					}},
				},
				{
					Type:        "search",
					Description: "First shared pages",
					Steps: []ProbeStep{{
						Method: http.MethodPost,
						URL:    "https://api.notion.com/v1/search",
						Body:   `{"page_size":5}`,
						Headers: map[string]string{
							"Notion-Version": notionVersion,
							"Content-Type":   "application/json",
						},
					}},
				},
			},
		},
		{
			ID:            "linear",
			Name:          "Linear",
			AuthURL:       "https://linear.app/oauth/authorize",
			TokenURL:      "https://api.linear.app/oauth/token",
			AuthStyle:     oauth2.AuthStyleInParams,
			DefaultScopes: "read",
			Probes: []Probe{
				{
					Type:        "user",
					Description: "GraphQL viewer",
					Steps: []ProbeStep{{
						Method:  http.MethodPost,
						URL:     "https://api.linear.app/graphql",
						Body:    `{"query":"{ viewer { id name email } }"}`,
						Headers: jsonContent,
					}},
				},
			},
		},
		{
			ID:        "asana",
			Name:      "Asana",
			AuthURL:   "https://app.asana.com/-/oauth_authorize",
			TokenURL:  "https://app.asana.com/-/oauth_token",
			AuthStyle: oauth2.AuthStyleInParams,
			ExtraKeys: []string{"data"},
			Probes: []Probe{
				getProbe("user", "Authenticated user", "https://app.asana.com/api/1.0/users/me"),
				getProbe("workspaces", "Workspaces", "https://app.asana.com/api/1.0/workspaces"),
			},
		},
		{
			ID:         "dropbox",
			Name:       "Dropbox",
			AuthURL:    "https://www.dropbox.com/oauth2/authorize",
			TokenURL:   "https://api.dropboxapi.com/oauth2/token",
			AuthStyle:  oauth2.AuthStyleInParams,
			AuthParams: map[string]string{"token_access_type": "offline"},
			ExtraKeys:  []string{"account_id", "uid"},
			Probes: []Probe{
				{
					Type:        "user",
					Description: "Current account",
					Steps: []ProbeStep{{
						Method: http.MethodPost,
						URL:    "https://api.dropboxapi.com/2/users/get_current_account",
					}},
				},
				{
					Type:        "files",
					Description: "Root folder listing",
					Steps: []ProbeStep{{
						Method:  http.MethodPost,
						URL:     "https://api.dropboxapi.com/2/files/list_folder",
						Body:    `{"path":"","limit":5}`,
						Headers: jsonContent,
					}},
				},
			},
		},
		{
			ID:        "box",
			Name:      "Box",
			AuthURL:   "https://account.box.com/api/oauth2/authorize",
			TokenURL:  "https://api.box.com/oauth2/token",
			AuthStyle: oauth2.AuthStyleInParams,
			Probes: []Probe{
				getProbe("user", "Authenticated user", "https://api.box.com/2.0/users/me"),
				getProbe("files", "Root folder items", "https://api.box.com/2.0/folders/0/items?limit=5"),
			},
		},
		{
			ID:        "zoom",
			Name:      "Zoom",
			AuthURL:   "https://zoom.us/oauth/authorize",
			TokenURL:  "https://zoom.us/oauth/token",
			AuthStyle: oauth2.AuthStyleInHeader,
			Probes: []Probe{
				getProbe("user", "Authenticated user", "https://api.zoom.us/v2/users/me"),
			},
		},
		{
			ID:          "mailchimp",
			Name:        "Mailchimp",
			AuthURL:     "https://login.mailchimp.com/oauth2/authorize",
			TokenURL:    "https://login.mailchimp.com/oauth2/token",
			AuthStyle:   oauth2.AuthStyleInParams,
			MetadataURL: "https://login.mailchimp.com/oauth2/metadata",
			Normalize:   NormalizeMetadata,
			Probes: []Probe{
				{
					Type:        "ping",
					Description: "API health check",
					Steps: []ProbeStep{{
						Method:     http.MethodGet,
						URL:        "https://{dc}.api.mailchimp.com/3.0/ping",
						AuthScheme: "OAuth",
					}},
				},
				{
					Type:        "lists",
					Description: "First audiences",
					Steps: []ProbeStep{{
						Method:     http.MethodGet,
						URL:        "https://{dc}.api.mailchimp.com/3.0/lists?count=5",
						AuthScheme: "OAuth",
					}},
				},
			},
		},
		{
			ID:            "quickbooks",
			Name:          "QuickBooks",
			AuthURL:       "https://appcenter.intuit.com/connect/oauth2",
			TokenURL:      "https://oauth.platform.intuit.com/oauth2/v1/tokens/bearer",
			AuthStyle:     oauth2.AuthStyleInHeader,
			DefaultScopes: "com.intuit.quickbooks.accounting",
			ExtraKeys:     []string{"x_refresh_token_expires_in"},
			Normalize:     NormalizeQueryRealm,
			Probes: []Probe{
				{
					Type:        "company",
					Description: "Company info",
					Steps: []ProbeStep{{
						Method:  http.MethodGet,
						URL:     "https://quickbooks.api.intuit.com/v3/company/{realmId}/companyinfo/{realmId}",
						Headers: map[string]string{"Accept": "application/json"},
					}},
				},
			},
		},
		{
			ID:            "xero",
			Name:          "Xero",
			AuthURL:       "https://login.xero.com/identity/connect/authorize",
			TokenURL:      "https://identity.xero.com/connect/token",
			AuthStyle:     oauth2.AuthStyleInHeader,
			DefaultScopes: "openid profile email offline_access accounting.settings.read",
			ExtraKeys:     []string{"id_token"},
			Probes: []Probe{
				getProbe("connections", "Connected tenants", "https://api.xero.com/connections"),
				{
					Type:        "organisation",
					Description: "First tenant organisation",
					Steps: []ProbeStep{
						{
							Method:  http.MethodGet,
							URL:     "https://api.xero.com/connections",
							Capture: map[string]string{"tenant_id": "0.tenantId"},
						},
						{
							Method: http.MethodGet,
							URL:    "https://api.xero.com/api.xro/2.0/Organisation",
							Headers: map[string]string{
								"Xero-tenant-id": "{tenant_id}",
								"Accept":         "application/json",
							},
						},
					},
				},
			},
		},
		{
			ID:            "discord",
			Name:          "Discord",
			AuthURL:       "https://discord.com/oauth2/authorize",
			TokenURL:      "https://discord.com/api/oauth2/token",
			AuthStyle:     oauth2.AuthStyleInParams,
			DefaultScopes: "identify guilds",
			Probes: []Probe{
				getProbe("user", "Authenticated user", "https://discord.com/api/users/@me"),
				getProbe("guilds", "Joined guilds", "https://discord.com/api/users/@me/guilds"),
			},
		},
		{
			ID:            "figma",
			Name:          "Figma",
			AuthURL:       "https://www.figma.com/oauth",
			TokenURL:      "https://api.figma.com/v1/oauth/token",
			AuthStyle:     oauth2.AuthStyleInHeader,
			DefaultScopes: "current_user:read",
			ExtraKeys:     []string{"user_id"},
			Probes: []Probe{
				getProbe("user", "Authenticated user", "https://api.figma.com/v1/me"),
			},
		},
		{
			ID:            "airtable",
			Name:          "Airtable",
			AuthURL:       "https://airtable.com/oauth2/v1/authorize",
			TokenURL:      "https://airtable.com/oauth2/v1/token",
			AuthStyle:     oauth2.AuthStyleInHeader,
			DefaultScopes: "data.records:read schema.bases:read user.email:read",
			UsePKCE:       true,
			ExtraKeys:     []string{"refresh_expires_in"},
			Probes: []Probe{
				getProbe("user", "whoami", "https://api.airtable.com/v0/meta/whoami"),
				getProbe("bases", "Accessible bases", "https://api.airtable.com/v0/meta/bases"),
			},
		},
		{
			ID:        "clickup",
			Name:      "ClickUp",
			AuthURL:   "https://app.clickup.com/api",
			TokenURL:  "https://api.clickup.com/api/v2/oauth/token",
			AuthStyle: oauth2.AuthStyleInParams,
			Probes: []Probe{
				{
					Type:        "user",
					Description: "Authorized user",
					Steps: []ProbeStep{{
						Method:     http.MethodGet,
						URL:        "https://api.clickup.com/api/v2/user",
						AuthScheme: AuthRaw,
					}},
				},
				{
					Type:        "teams",
					Description: "Authorized workspaces",
					Steps: []ProbeStep{{
						Method:     http.MethodGet,
						URL:        "https://api.clickup.com/api/v2/team",
						AuthScheme: AuthRaw,
					}},
				},
			},
		},
		{
			ID:            "monday",
			Name:          "monday.com",
			AuthURL:       "https://auth.monday.com/oauth2/authorize",
			TokenURL:      "https://auth.monday.com/oauth2/token",
			AuthStyle:     oauth2.AuthStyleInParams,
			DefaultScopes: "me:read boards:read",
			Probes: []Probe{
				{
					Type:        "user",
					Description: "GraphQL me",
					Steps: []ProbeStep{{
						Method:     http.MethodPost,
						URL:        "https://api.monday.com/v2",
						Body:       `{"query":"{ me { id name email } }"}`,
						Headers:    jsonContent,
						AuthScheme: AuthRaw,
					}},
				},
			},
		},
		{
			ID:        "pipedrive",
			Name:      "Pipedrive",
			AuthURL:   "https://oauth.pipedrive.com/oauth/authorize",
			TokenURL:  "https://oauth.pipedrive.com/oauth/token",
			AuthStyle: oauth2.AuthStyleInHeader,
			ExtraKeys: []string{"api_domain"},
			Probes: []Probe{
				getProbe("user", "Authenticated user", "{api_domain}/api/v1/users/me"),
			},
		},
		{
			ID:        "intercom",
			Name:      "Intercom",
			AuthURL:   "https://app.intercom.com/oauth",
			TokenURL:  "https://api.intercom.io/auth/eagle/token",
			AuthStyle: oauth2.AuthStyleInParams,
			Probes: []Probe{
				getProbe("user", "Authenticated admin", "https://api.intercom.io/me"),
			},
		},
		{
			ID:        "calendly",
			Name:      "Calendly",
			AuthURL:   "https://auth.calendly.com/oauth/authorize",
			TokenURL:  "https://auth.calendly.com/oauth/token",
			AuthStyle: oauth2.AuthStyleInParams,
			ExtraKeys: []string{"owner", "organization"},
			Probes: []Probe{
				getProbe("user", "Authenticated user", "https://api.calendly.com/users/me"),
			},
		},
	}
}
