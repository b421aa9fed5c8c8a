package user

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"detect-server-go/src/configs"
	"detect-server-go/src/core/auth"
	"detect-server-go/src/core/utils"
	"detect-server-go/src/models"

	"github.com/gin-gonic/gin"
	"github.com/go-sql-driver/mysql"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type DefaultUserService struct {
	logger    *utils.Logger
	config    *configs.Config
	db        *gorm.DB
	authToken *auth.AuthToken
}

// NewDefaultUserService 构造函数
func NewDefaultUserService(config *configs.Config, logger *utils.Logger, db *gorm.DB) (*DefaultUserService, error) {
	if db == nil {
		return nil, fmt.Errorf("用户服务需要数据库连接")
	}

	service := &DefaultUserService{
		logger:    logger,
		config:    config,
		db:        db,
		authToken: auth.NewAuthToken(config.Server.Secret),
	}

	return service, nil
}

// Start 实现 UserService 接口，注册所有用户相关路由
func (s *DefaultUserService) Start(ctx context.Context, engine *gin.Engine, apiGroup *gin.RouterGroup) error {
	apiGroup.POST("/register", s.handleRegister)
	apiGroup.POST("/login", s.handleLogin)
	apiGroup.GET("/profile", s.handleProfile)

	s.logger.Info("User HTTP服务路由注册完成")
	return nil
}

// handleRegister 处理注册请求（form表单，纯文本响应）
func (s *DefaultUserService) handleRegister(c *gin.Context) {
	fullName := c.PostForm("fullName")
	email := c.PostForm("email")
	password := c.PostForm("password")
	phone := c.PostForm("phone") // 可选
	gender := c.PostForm("gender")

	// phone以外的字段都是必填
	if fullName == "" || email == "" || password == "" || gender == "" {
		c.String(http.StatusBadRequest, "ERROR: Missing required fields.")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		c.String(http.StatusInternalServerError, "ERROR: Failed to hash password.")
		s.logger.Error(fmt.Sprintf("密码哈希失败: %v", err))
		return
	}

	newUser := models.User{
		FullName:     fullName,
		Email:        email,
		PasswordHash: string(hash),
		Phone:        phone,
		Gender:       gender,
	}

	if err := s.db.Create(&newUser).Error; err != nil {
		if isDuplicateEmail(err) {
			c.String(http.StatusConflict, "ERROR: Email already registered.")
			return
		}
		c.String(http.StatusInternalServerError, "ERROR: Database statement failed.")
		s.logger.Error(fmt.Sprintf("用户注册写入失败: %v", err))
		return
	}

	s.logger.Info(fmt.Sprintf("新用户注册成功: %s", email))
	c.String(http.StatusCreated, "SUCCESS: User registered successfully.")
}

// isDuplicateEmail 区分唯一索引冲突与其他数据库错误。
// gorm在开启TranslateError后统一返回ErrDuplicatedKey，MySQL下再兜底检查1062
func isDuplicateEmail(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) {
		return mysqlErr.Number == 1062
	}
	return false
}

// loginRequest 登录请求体
type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// handleLogin 处理登录请求，校验通过后签发访问token
func (s *DefaultUserService) handleLogin(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "解析失败: " + err.Error()})
		return
	}

	if req.Email == "" || req.Password == "" {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "缺少email或password"})
		return
	}

	var u models.User
	if err := s.db.Where("email = ?", req.Email).First(&u).Error; err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "邮箱或密码错误"})
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(req.Password)); err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "邮箱或密码错误"})
		return
	}

	token, err := s.authToken.GenerateToken(u.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "签发token失败"})
		s.logger.Error(fmt.Sprintf("签发token失败: %v", err))
		return
	}

	c.JSON(http.StatusOK, gin.H{"access_token": token})
}

// handleProfile 处理需要认证的用户信息请求
func (s *DefaultUserService) handleProfile(c *gin.Context) {
	authHeader := c.GetHeader("Authorization")
	const prefix = "Bearer "
	if len(authHeader) <= len(prefix) || authHeader[:len(prefix)] != prefix {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "无效的认证token"})
		return
	}

	isValid, userID, err := s.authToken.VerifyToken(authHeader[len(prefix):])
	if err != nil || !isValid {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "无效的认证token或token已过期"})
		return
	}

	var u models.User
	if err := s.db.First(&u, userID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "用户不存在"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user_id":   u.ID,
		"full_name": u.FullName,
		"email":     u.Email,
	})
}
