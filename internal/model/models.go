package model

// All 返回需要迁移的全部模型
func All() []interface{} {
	return []interface{}{
		&School{}, &Course{}, &User{}, &Enrollment{},
		&Follow{}, &Fan{},
		&Thread{}, &Review{}, &Bounty{}, &Resource{},
		&Post{},
	}
}
