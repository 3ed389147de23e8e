package password

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// bcrypt 对超过72字节的输入静默截断，先行拒绝避免弱化
const maxPasswordBytes = 72

// ErrPasswordTooLong 密码超出 bcrypt 可处理的长度
var ErrPasswordTooLong = errors.New("password exceeds 72 bytes")

// Hash 加密密码
func Hash(password string) (string, error) {
	if len(password) > maxPasswordBytes {
		return "", ErrPasswordTooLong
	}
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(bytes), nil
}

// Verify 验证密码
func Verify(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}
