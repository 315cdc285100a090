// Package mocks provides shared mock implementations for testing.
//
// # Usage
//
//	import "todofront/internal/mocks"
//
//	func TestSomething(t *testing.T) {
//	    doer := mocks.NewMockDoer()
//	    doer.OnDo(func(req *http.Request) (*http.Response, error) {
//	        return mocks.JSONResponse(200, `{"data":{"todos":[]}}`), nil
//	    })
//	    client := graphql.NewClient("http://api.test/query", graphql.WithDoer(doer))
//	    // Use client in test...
//	}
//
// # Available Mocks
//
//   - MockDoer: Mock for graphql.Doer (the HTTP transport)
//   - MockNavigator: Mock for flow.Navigator that records navigations
//
// Use pkg/testkit when the test needs a real HTTP endpoint or cookie handling.
package mocks
