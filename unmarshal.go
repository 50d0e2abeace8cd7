package pricewatch

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

type Unmarshaller interface {
	Unmarshal(s string) error
}

type UnmarshalMustBePointerError struct{}

func (err UnmarshalMustBePointerError) Error() string {
	return "must be a pointer to the value"
}

type UnmarshalOption struct {
	Attr      string // if nonempty, extracts attribute of element. otherwise, uses Text()
	Re        string // Regular Expression. must contain one capture.
	TrimSpace bool   // trims the text before storing it
	Currency  string // currency marker for float values, DefaultCurrency if empty
}

func unmarshalValue(value reflect.Value, sel *goquery.Selection, opt UnmarshalOption) error {
	if !value.CanSet() {
		return errors.New("value must CanSet")
	}

	var re *regexp.Regexp
	if opt.Re != "" {
		var err error
		re, err = regexp.Compile(opt.Re)
		if err != nil {
			return fmt.Errorf("re:%#v: %v", opt.Re, err)
		}
	}

	selected := make([]string, 0, sel.Length())
	for i := 0; i < sel.Length(); i++ {
		j := sel.Eq(i)

		// extract text from Attr(attr) or Text()
		var s string
		if opt.Attr != "" {
			if w, ok := j.Attr(opt.Attr); ok {
				s = w
			} else {
				continue
			}
		} else {
			s = j.Text()
		}

		if re != nil {
			submatch := re.FindStringSubmatch(s)
			n := len(submatch) - 1
			if n == -1 {
				continue
			} else if n != 1 {
				return fmt.Errorf("re:%#v: matched count of the regular expression is %d, should be 0 or 1, for text %#v", opt.Re, n, s)
			}
			s = submatch[1]
		}
		if opt.TrimSpace {
			s = strings.Join(strings.Fields(s), " ")
		}

		selected = append(selected, s)
	}

	if value.Kind() == reflect.Slice {
		rv := reflect.MakeSlice(value.Type(), len(selected), len(selected))
		for i := 0; i < len(selected); i++ {
			err := unmarshalValueOne(rv.Index(i), selected[i], opt)
			if err != nil {
				return fmt.Errorf("#%d: %w", i, err)
			}
		}
		value.Set(rv)
		return nil
	}

	if value.Kind() == reflect.Ptr {
		if len(selected) == 0 {
			value.Set(reflect.Zero(value.Type()))
			return nil
		}
		newValue := reflect.New(value.Type().Elem())
		value.Set(newValue)
		value = newValue.Elem()
	}

	if len(selected) != 1 {
		return fmt.Errorf("length(%v) != 1", len(selected))
	}

	return unmarshalValueOne(value, selected[0], opt)
}

func unmarshalValueOne(value reflect.Value, s string, opt UnmarshalOption) error {
	if !value.CanAddr() {
		return fmt.Errorf("failed CanAddr: %v, %v", value, value.Type())
	}

	if inf, ok := value.Addr().Interface().(Unmarshaller); ok {
		return inf.Unmarshal(s)
	}

	switch value.Kind() {
	case reflect.String:
		value.SetString(s)

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		var i int64
		_, err := fmt.Sscanf(stripchars(strings.TrimSpace(s), "., "), "%d", &i)
		if err != nil {
			return err
		}
		value.SetInt(i)

	case reflect.Float32, reflect.Float64:
		f, err := ParsePrice(s, opt.Currency)
		if err != nil {
			return err
		}
		value.SetFloat(f)

	default:
		return fmt.Errorf("unknown type %v", value.Type())
	}
	return nil
}

// Unmarshal stores the text of selection into v.
// v may be a string, an int, a float (parsed as a price), a type implementing
// Unmarshaller, a pointer to one of those (nil when nothing is selected) or a
// slice of them.
func Unmarshal(v interface{}, selection *goquery.Selection, opt UnmarshalOption) error {
	ht := reflect.TypeOf(v)
	if ht == nil || ht.Kind() != reflect.Ptr {
		return UnmarshalMustBePointerError{}
	}

	return unmarshalValue(reflect.ValueOf(v).Elem(), selection, opt)
}
