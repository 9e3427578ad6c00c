package apiclient

// Backend paths, relative to the client's base URL.
const (
	PathForms       = "api/insurance/forms"
	PathSubmit      = "api/insurance/forms/submit"
	PathSubmissions = "api/insurance/forms/submissions"
	PathStates      = "api/getStates"
)
