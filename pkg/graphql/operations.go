package graphql

import "context"

// Documents sent by the front end. The selections match what the pages render.
const (
	RegisterUserDocument = `mutation RegisterUser($input: RegisterUserInput!) {
  registerUser(input: $input) {
    success
    message
    user {
      id
      name
      email
      createdAt
    }
  }
}`

	LoginUserDocument = `mutation LoginUser($input: LoginUserInput!) {
  loginUser(input: $input) {
    success
    message
    user {
      id
      name
      email
      createdAt
    }
  }
}`

	GetTodosDocument = `query GetTodos {
  todos {
    id
    text
    done
    user {
      id
      name
    }
  }
}`

	CreateTodoDocument = `mutation CreateTodo($input: NewTodo!) {
  createTodo(input: $input) {
    id
    text
    done
    user {
      id
      name
    }
  }
}`
)

// User is an account as returned by the auth mutations.
type User struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email,omitempty"`
	CreatedAt string `json:"createdAt,omitempty"`
}

// Todo is one todo item. User carries only id and name.
type Todo struct {
	ID   string `json:"id"`
	Text string `json:"text"`
	Done bool   `json:"done"`
	User User   `json:"user"`
}

// AuthPayload is the result of RegisterUser and LoginUser.
// Success=false with a Message is a semantic rejection, not a transport error.
type AuthPayload struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	User    *User  `json:"user"`
}

// RegisterUserInput mirrors the RegisterUserInput GraphQL input type.
type RegisterUserInput struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginUserInput mirrors the LoginUserInput GraphQL input type.
type LoginUserInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// NewTodo mirrors the NewTodo GraphQL input type.
type NewTodo struct {
	Text string `json:"text"`
}

// RegisterUser creates an account.
func (c *Client) RegisterUser(ctx context.Context, input RegisterUserInput) (*AuthPayload, error) {
	var out struct {
		RegisterUser AuthPayload `json:"registerUser"`
	}
	req := Request{
		Query:         RegisterUserDocument,
		Variables:     map[string]any{"input": input},
		OperationName: "RegisterUser",
	}
	if err := c.Do(ctx, req, &out); err != nil {
		return nil, err
	}
	return &out.RegisterUser, nil
}

// LoginUser authenticates. On success the API sets its session cookie on the transport's jar.
func (c *Client) LoginUser(ctx context.Context, input LoginUserInput) (*AuthPayload, error) {
	var out struct {
		LoginUser AuthPayload `json:"loginUser"`
	}
	req := Request{
		Query:         LoginUserDocument,
		Variables:     map[string]any{"input": input},
		OperationName: "LoginUser",
	}
	if err := c.Do(ctx, req, &out); err != nil {
		return nil, err
	}
	return &out.LoginUser, nil
}

// GetTodos lists todos in the order the API returns them.
func (c *Client) GetTodos(ctx context.Context) ([]Todo, error) {
	var out struct {
		Todos []Todo `json:"todos"`
	}
	req := Request{Query: GetTodosDocument, OperationName: "GetTodos"}
	if err := c.Do(ctx, req, &out); err != nil {
		return nil, err
	}
	if out.Todos == nil {
		return []Todo{}, nil
	}
	return out.Todos, nil
}

// CreateTodo adds a todo owned by the logged-in user.
func (c *Client) CreateTodo(ctx context.Context, input NewTodo) (*Todo, error) {
	var out struct {
		CreateTodo *Todo `json:"createTodo"`
	}
	req := Request{
		Query:         CreateTodoDocument,
		Variables:     map[string]any{"input": input},
		OperationName: "CreateTodo",
	}
	if err := c.Do(ctx, req, &out); err != nil {
		return nil, err
	}
	if out.CreateTodo == nil {
		return nil, &TransportError{Op: "CreateTodo", Err: errMissingField("createTodo")}
	}
	return out.CreateTodo, nil
}

type errMissingField string

func (e errMissingField) Error() string {
	return "response is missing " + string(e)
}
