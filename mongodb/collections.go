package mongodb

const (
	AccountsCollection = "accounts"

	accountEmailIndex = "accounts_email_unique"
	accountLinksIndex = "accounts_links_unique"
)
