package screen

import (
	"github.com/pitabwire/shinsei/internal/directory"
	"github.com/pitabwire/shinsei/internal/form"
	"github.com/pitabwire/shinsei/internal/modal"
	"github.com/pitabwire/shinsei/model"
)

// Screen names.
const (
	ScreenLogin    = "login"
	ScreenWorkflow = "workflow"
)

// View is everything a client needs to draw the current screen.
type View struct {
	Screen    string                `json:"screen"`
	Login     *LoginView            `json:"login,omitempty"`
	Header    *directory.HeaderInfo `json:"header,omitempty"`
	Workflows []model.Option        `json:"workflows,omitempty"`
	Selected  string                `json:"selected_workflow"`
	Form      *form.View            `json:"form,omitempty"`
	Modal     modal.View            `json:"modal"`
}

// LoginView carries the message of the last failed login.
type LoginView struct {
	Message string `json:"message,omitempty"`
}

// LoginScreen renders the login screen with an optional failure message.
func LoginScreen(message string) View {
	return View{Screen: ScreenLogin, Login: &LoginView{Message: message}}
}
