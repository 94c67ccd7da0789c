package service

import "math/rand"

// 邀请码/房间加入码共用的36进制字符集
const codeAlphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"

const referralCodePrefix = "AIM-"

// randomCode 生成n位随机大写字母数字串
// 不做唯一性校验：现有规模下碰撞概率可忽略，这是已知取舍
func randomCode(n int) string {
	buf := make([]byte, n)
	for i := range buf {
		buf[i] = codeAlphabet[rand.Intn(len(codeAlphabet))]
	}
	return string(buf)
}

// GenerateReferralCode 生成邀请码，形如 AIM-7K2Q
func GenerateReferralCode() string {
	return referralCodePrefix + randomCode(4)
}

// generateRoomCode 生成6位房间加入码
func generateRoomCode() string {
	return randomCode(6)
}
