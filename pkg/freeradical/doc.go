// Package freeradical is a typed client for the FreeRadical CMS REST API.
//
// A Client is bound to one base URL and one set of credentials:
//
//	c, err := freeradical.New(freeradical.Config{
//	    BaseURL: "https://cms.example.com",
//	    APIKey:  os.Getenv("FREERADICAL_API_KEY"),
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	pages, err := c.ListPages(ctx, &freeradical.PaginationOptions{Page: 2, PerPage: 20})
//
// # Credentials
//
// The configuration is copied when the client is built and never changes.
// Use [Client.WithToken] to obtain a client carrying a different bearer token.
//
// # Errors
//
// Non-2xx responses are returned as [*APIError]; use errors.Is with
// [ErrNotFound], [ErrUnauthorized] and friends to classify them. Network
// failures and timeouts are returned as [*TransportError]. Every call is a
// single round trip: nothing is retried or cached.
//
// # Authentication failures
//
// Register [Config.OnUnauthorized] to observe every 401 response, for example
// to discard a stored session. The error is still returned to the caller.
package freeradical
