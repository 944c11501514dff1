package session_test

import (
	"context"
	"io"
	"mime/multipart"

	"github.com/goliatone/go-router"
	"github.com/stretchr/testify/mock"
)

// MockRouterContext mocks router.Context for the RouteGuard tests.
type MockRouterContext struct {
	mock.Mock
	NextCalled bool
}

func (m *MockRouterContext) Next() error {
	m.NextCalled = true
	return nil
}

func (m *MockRouterContext) Context() context.Context {
	args := m.Called()
	c, ok := args.Get(0).(context.Context)
	if !ok {
		panic("arg needs to be context.Context")
	}
	return c
}

func (m *MockRouterContext) SetContext(ctx context.Context) {
	m.Called(ctx)
}

func (m *MockRouterContext) Path() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockRouterContext) Method() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockRouterContext) Body() []byte {
	args := m.Called()
	return args.Get(0).([]byte)
}

func (m *MockRouterContext) Status(code int) router.Context {
	m.Called(code)
	return m
}

func (m *MockRouterContext) SendString(s string) error {
	args := m.Called(s)
	return args.Error(0)
}

func (m *MockRouterContext) Send(b []byte) error {
	args := m.Called(b)
	return args.Error(0)
}

func (m *MockRouterContext) JSON(code int, val any) error {
	args := m.Called(code, val)
	return args.Error(0)
}

func (m *MockRouterContext) NoContent(code int) error {
	args := m.Called(code)
	return args.Error(0)
}

func (m *MockRouterContext) Render(name string, bind any, layout ...string) error {
	if len(layout) > 0 {
		args := m.Called(name, bind, layout[0])
		return args.Error(0)
	}
	args := m.Called(name, bind)
	return args.Error(0)
}

func (m *MockRouterContext) Redirect(path string, status ...int) error {
	if len(status) > 0 {
		args := m.Called(path, status)
		return args.Error(0)
	}
	args := m.Called(path)
	return args.Error(0)
}

func (m *MockRouterContext) RedirectToRoute(name string, data router.ViewContext, status ...int) error {
	if len(status) > 0 {
		args := m.Called(name, data, status[0])
		return args.Error(0)
	}
	args := m.Called(name, data)
	return args.Error(0)
}

func (m *MockRouterContext) RedirectBack(fallback string, status ...int) error {
	if len(status) > 0 {
		args := m.Called(fallback, status)
		return args.Error(0)
	}
	args := m.Called(fallback)
	return args.Error(0)
}

func (m *MockRouterContext) SetHeader(key, val string) router.Context {
	m.Called(key, val)
	return m
}

func (m *MockRouterContext) Header(key string) string {
	args := m.Called(key)
	return args.String(0)
}

func (m *MockRouterContext) Get(key string, defaultValue any) any {
	args := m.Called(key, defaultValue)
	return args.Get(0)
}

func (m *MockRouterContext) GetBool(key string, defaultValue bool) bool {
	args := m.Called(key, defaultValue)
	return args.Bool(0)
}

func (m *MockRouterContext) GetInt(key string, def int) int {
	args := m.Called(key, def)
	return args.Int(0)
}

func (m *MockRouterContext) Set(key string, val any) {
	m.Called(key, val)
}

func (m *MockRouterContext) Bind(i any) error {
	args := m.Called(i)
	return args.Error(0)
}

func (m *MockRouterContext) BindJSON(i any) error {
	args := m.Called(i)
	return args.Error(0)
}

func (m *MockRouterContext) BindXML(i any) error {
	args := m.Called(i)
	return args.Error(0)
}

func (m *MockRouterContext) BindQuery(i any) error {
	args := m.Called(i)
	return args.Error(0)
}

func (m *MockRouterContext) CookieParser(i any) error {
	args := m.Called(i)
	return args.Error(0)
}

func (m *MockRouterContext) Cookie(cookie *router.Cookie) {
	m.Called(cookie)
}

func (m *MockRouterContext) Cookies(key string, defaultValue ...string) string {
	if len(defaultValue) > 0 {
		args := m.Called(key, defaultValue[0])
		return args.String(0)
	}
	args := m.Called(key)
	return args.String(0)
}

func (m *MockRouterContext) Param(key string, defaultValue ...string) string {
	if len(defaultValue) > 0 {
		args := m.Called(key, defaultValue[0])
		return args.String(0)
	}
	args := m.Called(key)
	return args.String(0)
}

func (m *MockRouterContext) ParamsInt(key string, defaultValue int) int {
	args := m.Called(key, defaultValue)
	return args.Int(0)
}

func (m *MockRouterContext) Query(key string, defaultValue ...string) string {
	if len(defaultValue) > 0 {
		args := m.Called(key, defaultValue[0])
		return args.String(0)
	}
	args := m.Called(key)
	return args.String(0)
}

func (m *MockRouterContext) QueryValues(key string) []string {
	args := m.Called(key)
	return args.Get(0).([]string)
}

func (m *MockRouterContext) QueryInt(key string, defaultValue int) int {
	args := m.Called(key, defaultValue)
	return args.Int(0)
}

func (m *MockRouterContext) Queries() map[string]string {
	args := m.Called()
	return args.Get(0).(map[string]string)
}

func (m *MockRouterContext) GetString(key string, defaultValue string) string {
	args := m.Called(key, defaultValue)
	return args.String(0)
}

func (m *MockRouterContext) Locals(key any, value ...any) any {
	if len(value) > 0 {
		m.Called(key, value[0])
		return nil
	}
	args := m.Called(key)
	return args.Get(0)
}

func (m *MockRouterContext) OriginalURL() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockRouterContext) OnNext(callback func() error) {
	m.Called(callback)
}

func (m *MockRouterContext) Referer() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockRouterContext) LocalsMerge(key any, value map[string]any) map[string]any {
	args := m.Called(key, value)
	return args.Get(0).(map[string]any)
}

func (m *MockRouterContext) FormFile(key string) (*multipart.FileHeader, error) {
	args := m.Called(key)
	return args.Get(0).(*multipart.FileHeader), args.Error(1)
}

func (m *MockRouterContext) FormValue(key string, defaultValue ...string) string {
	if len(defaultValue) > 0 {
		args := m.Called(key, defaultValue[0])
		return args.String(0)
	}
	args := m.Called(key)
	return args.String(0)
}

func (m *MockRouterContext) IP() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockRouterContext) SendStatus(code int) error {
	args := m.Called(code)
	return args.Error(0)
}

func (m *MockRouterContext) SendStream(r io.Reader) error {
	args := m.Called(r)
	return args.Error(0)
}

func (m *MockRouterContext) RouteName() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockRouterContext) RouteParams() map[string]string {
	args := m.Called()
	return args.Get(0).(map[string]string)
}
