package services_test

import (
	"context"
	"errors"
	"testing"

	"plugshop/internal/forms"
	"plugshop/internal/models"
	"plugshop/internal/services"
	"plugshop/testhelpers/mocks"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"golang.org/x/crypto/bcrypt"
)

type UserServiceTestSuite struct {
	suite.Suite
	users   *mocks.UserRepository
	service services.UserService
	ctx     context.Context
}

func (suite *UserServiceTestSuite) SetupTest() {
	suite.users = new(mocks.UserRepository)
	suite.service = services.NewUserService(suite.users, bcrypt.MinCost)
	suite.ctx = context.Background()
}

func (suite *UserServiceTestSuite) TearDownTest() {
	suite.users.AssertExpectations(suite.T())
}

func TestUserServiceTestSuite(t *testing.T) {
	suite.Run(t, new(UserServiceTestSuite))
}

func validRegisterForm() *forms.RegisterForm {
	return &forms.RegisterForm{
		Username:  "gamer_01",
		Email:     "gamer@example.com",
		Password1: "correct-horse-battery",
		Password2: "correct-horse-battery",
	}
}

func hashed(password string) string {
	hash, _ := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	return string(hash)
}

func (suite *UserServiceTestSuite) TestRegister_CreatesExactlyOneUser() {
	suite.users.On("UsernameExists", mock.Anything, "gamer_01").Return(false, nil).Once()
	suite.users.On("Create", mock.Anything, mock.MatchedBy(func(u *models.User) bool {
		return u.Username == "gamer_01" &&
			u.Email == "gamer@example.com" &&
			u.IsActive && !u.IsStaff &&
			bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte("correct-horse-battery")) == nil
	})).Return(nil).Once()

	user, errs, err := suite.service.Register(suite.ctx, validRegisterForm())
	require.NoError(suite.T(), err)
	assert.Empty(suite.T(), errs)
	require.NotNil(suite.T(), user)
	assert.NotEqual(suite.T(), uuid.Nil, user.ID)
}

func (suite *UserServiceTestSuite) TestRegister_DuplicateUsernameCreatesNothing() {
	suite.users.On("UsernameExists", mock.Anything, "gamer_01").Return(true, nil).Once()

	user, errs, err := suite.service.Register(suite.ctx, validRegisterForm())
	require.NoError(suite.T(), err)
	assert.Nil(suite.T(), user)
	assert.Equal(suite.T(), "A user with that username already exists.", errs.First("username"))
	suite.users.AssertNotCalled(suite.T(), "Create", mock.Anything, mock.Anything)
}

func (suite *UserServiceTestSuite) TestRegister_InsertRaceReportsUsernameError() {
	suite.users.On("UsernameExists", mock.Anything, "gamer_01").Return(false, nil).Once()
	suite.users.On("Create", mock.Anything, mock.Anything).Return(models.ErrUsernameTaken).Once()

	user, errs, err := suite.service.Register(suite.ctx, validRegisterForm())
	require.NoError(suite.T(), err)
	assert.Nil(suite.T(), user)
	assert.True(suite.T(), errs.Has("username"))
}

func (suite *UserServiceTestSuite) TestRegister_LookupFailure() {
	suite.users.On("UsernameExists", mock.Anything, "gamer_01").Return(false, errors.New("db down")).Once()

	_, _, err := suite.service.Register(suite.ctx, validRegisterForm())
	assert.Error(suite.T(), err)
}

func (suite *UserServiceTestSuite) TestAuthenticate() {
	user := &models.User{ID: uuid.New(), Username: "gamer_01", PasswordHash: hashed("correct-horse-battery"), IsActive: true}
	suite.users.On("GetByUsername", mock.Anything, "gamer_01").Return(user, nil)

	got, err := suite.service.Authenticate(suite.ctx, "gamer_01", "correct-horse-battery")
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), user.ID, got.ID)

	_, err = suite.service.Authenticate(suite.ctx, "gamer_01", "wrong-password")
	assert.ErrorIs(suite.T(), err, models.ErrInvalidCredentials)
}

func (suite *UserServiceTestSuite) TestAuthenticate_UnknownUser() {
	suite.users.On("GetByUsername", mock.Anything, "ghost").Return(nil, models.ErrNotFound).Once()

	_, err := suite.service.Authenticate(suite.ctx, "ghost", "whatever-password")
	assert.ErrorIs(suite.T(), err, models.ErrInvalidCredentials)
}

func (suite *UserServiceTestSuite) TestAuthenticate_InactiveUser() {
	user := &models.User{ID: uuid.New(), Username: "retired", PasswordHash: hashed("correct-horse-battery"), IsActive: false}
	suite.users.On("GetByUsername", mock.Anything, "retired").Return(user, nil).Once()

	_, err := suite.service.Authenticate(suite.ctx, "retired", "correct-horse-battery")
	assert.ErrorIs(suite.T(), err, models.ErrInvalidCredentials)
}

func (suite *UserServiceTestSuite) TestCreateSuperuser() {
	suite.users.On("UsernameExists", mock.Anything, "admin").Return(false, nil).Once()
	suite.users.On("Create", mock.Anything, mock.MatchedBy(func(u *models.User) bool {
		return u.IsStaff && u.IsSuperuser && u.IsActive
	})).Return(nil).Once()

	user, err := suite.service.CreateSuperuser(suite.ctx, "admin", "admin@example.com", "s3cure-admin-pass")
	require.NoError(suite.T(), err)
	assert.True(suite.T(), user.IsStaff)
}

func (suite *UserServiceTestSuite) TestCreateSuperuser_WeakPassword() {
	suite.users.On("UsernameExists", mock.Anything, "admin").Return(false, nil).Once()

	_, err := suite.service.CreateSuperuser(suite.ctx, "admin", "admin@example.com", "12345678")

	var verr *models.ValidationError
	require.ErrorAs(suite.T(), err, &verr)
	assert.Contains(suite.T(), verr.Fields, "password2")
}
