package main

var (
	// NavSections are the in-page anchors in header order.
	NavSections = []string{"about", "skills", "projects", "experience", "contact"}

	LoadingTitle = `Initializing Portfolio...`

	FooterCopy = `Built with Go, Gin and HTMX. Every heading is decrypted server-side.`

	ContactSuccess = `Thank you for your message! I'll get back to you soon.`

	ContactMissing = `Please fill in your name, a valid email address and a message.`
)
