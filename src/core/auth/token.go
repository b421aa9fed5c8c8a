package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

type AuthToken struct {
	secretKey []byte
}

func NewAuthToken(secretKey string) *AuthToken {
	// 添加验证，确保密钥不为空
	if secretKey == "" {
		fmt.Println("Error! secret key cannot be empty")
	}
	return &AuthToken{
		secretKey: []byte(secretKey),
	}
}

// GenerateToken 为登录用户签发访问token，1小时过期
func (at *AuthToken) GenerateToken(userID uint) (string, error) {
	expireTime := time.Now().Add(time.Hour)

	claims := jwt.MapClaims{
		"user_id": float64(userID),
		"exp":     expireTime.Unix(),
		"iat":     time.Now().Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	tokenString, err := token.SignedString(at.secretKey)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return tokenString, nil
}

// VerifyToken 验证token并返回其中的用户ID
func (at *AuthToken) VerifyToken(tokenString string) (bool, uint, error) {
	if at == nil {
		return false, 0, errors.New("AuthToken instance is nil")
	}

	if at.secretKey == nil {
		return false, 0, errors.New("secret key is not initialized")
	}

	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		// 验证签名方法
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return at.secretKey, nil
	})

	if err != nil {
		return false, 0, fmt.Errorf("failed to parse token: %w", err)
	}

	if !token.Valid {
		return false, 0, errors.New("invalid token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return false, 0, errors.New("invalid claims")
	}

	userID, ok := claims["user_id"].(float64)
	if !ok {
		return false, 0, errors.New("invalid user_id in claims")
	}

	return true, uint(userID), nil
}
