package tests

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	. "github.com/trezcool/masomo/apps/api/echo"
	"github.com/trezcool/masomo/core"
	"github.com/trezcool/masomo/core/cantine"
	"github.com/trezcool/masomo/core/course"
	"github.com/trezcool/masomo/core/message"
	"github.com/trezcool/masomo/core/payment"
	"github.com/trezcool/masomo/core/user"
	"github.com/trezcool/masomo/services/email"
	"github.com/trezcool/masomo/tests"
)

func Test_courseApi_enroll(t *testing.T) {
	testutil.ResetDB(t, db)

	s1 := testutil.CreateStudent(t, studentRepo, testutil.CreateUser(t, usrRepo, "S1", "s1@test.cd", testPassword, user.RoleStudent, true).ID, "S-1")
	s2 := testutil.CreateStudent(t, studentRepo, testutil.CreateUser(t, usrRepo, "S2", "s2@test.cd", testPassword, user.RoleStudent, true).ID, "S-2")
	crs := testutil.CreateCourse(t, courseRepo, "BIO1", "", 1)
	path := "/courses/" + crs.ID + "/enroll"

	tests := []httpTest{
		{
			name: "unknown student", body: marchallObj(t, EnrollRequest{Student: crs.ID}),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, httpErr{Status: "fail", Message: "invalid input data", Errors: map[string]string{"student": "student not found"}}),
		},
		{name: "enrolled", body: marchallObj(t, EnrollRequest{Student: s1.ID}), wantCode: http.StatusOK},
		{name: "already enrolled", body: marchallObj(t, EnrollRequest{Student: s1.ID}), wantCode: http.StatusConflict},
		{
			name: "course full", body: marchallObj(t, EnrollRequest{Student: s2.ID}),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, httpErr{Status: "fail", Message: "invalid input data", Errors: map[string]string{"students": "course has reached its capacity"}}),
		},
	}
	for _, tt := range tests {
		tt.method = http.MethodPost
		tt.path = path
		tt.apiKey = conf.APIKeys.Direction

		t.Run(tt.name, func(t *testing.T) {
			rec := serve(tt)
			checkCodeAndData(t, tt, rec)
		})
	}

	// unenroll frees the seat
	rec := serve(httpTest{method: http.MethodDelete, path: "/courses/" + crs.ID + "/students/" + s1.ID, apiKey: conf.APIKeys.Admin})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	rec = serve(httpTest{method: http.MethodPost, path: path, body: marchallObj(t, EnrollRequest{Student: s2.ID}), apiKey: conf.APIKeys.Admin})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var c course.Course
	decodeData(t, rec, "course", &c)
	assert.Equal(t, []string{s2.ID}, c.Students)
}

func Test_paymentApi(t *testing.T) {
	testutil.ResetDB(t, db)
	emailsvc.ClearSentMessages()

	u1 := testutil.CreateUser(t, usrRepo, "Kid One", "kid1@test.cd", testPassword, user.RoleStudent, true)
	u2 := testutil.CreateUser(t, usrRepo, "Kid Two", "kid2@test.cd", testPassword, user.RoleStudent, true)
	s1 := testutil.CreateStudent(t, studentRepo, u1.ID, "S-1")
	s2 := testutil.CreateStudent(t, studentRepo, u2.ID, "S-2")
	parentUsr := testutil.CreateUser(t, usrRepo, "Parent", "parent@test.cd", testPassword, user.RoleParent, true)
	testutil.CreateParent(t, parentRepo, parentUsr.ID, s1.ID)
	orphan := testutil.CreateUser(t, usrRepo, "No Kids", "nokids@test.cd", testPassword, user.RoleParent, true)

	create := func(studentID string) payment.Payment {
		body := marchallObj(t, payment.NewPayment{Student: studentID, Amount: 150, PaymentType: payment.TypeTuition})
		rec := serve(httpTest{method: http.MethodPost, path: "/payments", body: body, apiKey: conf.APIKeys.Admin})
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		var p payment.Payment
		decodeData(t, rec, "payment", &p)
		return p
	}
	p1 := create(s1.ID)
	p2 := create(s2.ID)
	assert.Equal(t, payment.StatusPending, p1.Status)
	assert.Equal(t, payment.MethodCash, p1.PaymentMethod)
	assert.Empty(t, p1.ReceiptNumber)

	parentToken := getToken(t, parentUsr)
	list := func(token, query string) []payment.Payment {
		rec := serve(httpTest{method: http.MethodGet, path: "/payments" + query, token: token})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var payments []payment.Payment
		decodeData(t, rec, "payments", &payments)
		return payments
	}

	t.Run("parent sees their children only", func(t *testing.T) {
		payments := list(parentToken, "")
		if assert.Len(t, payments, 1) {
			assert.Equal(t, p1.ID, payments[0].ID)
		}
		assert.Empty(t, list(parentToken, "?student="+s2.ID))
		assert.Empty(t, list(getToken(t, orphan), ""))
	})
	t.Run("student sees their own", func(t *testing.T) {
		payments := list(getToken(t, u2), "")
		if assert.Len(t, payments, 1) {
			assert.Equal(t, p2.ID, payments[0].ID)
		}
	})
	t.Run("staff sees all", func(t *testing.T) {
		rec := serve(httpTest{method: http.MethodGet, path: "/payments", apiKey: conf.APIKeys.Direction})
		require.Equal(t, http.StatusOK, rec.Code)
		var payments []payment.Payment
		decodeData(t, rec, "payments", &payments)
		assert.Len(t, payments, 2)
	})
	t.Run("teachers cannot see payments", func(t *testing.T) {
		rec := serve(httpTest{method: http.MethodGet, path: "/payments", apiKey: conf.APIKeys.Teacher})
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})
	t.Run("parent cannot read another child's payment", func(t *testing.T) {
		tt := httpTest{
			method: http.MethodGet, path: "/payments/" + p2.ID, token: parentToken,
			wantCode: http.StatusForbidden, wantData: marchallObj(t, errPermissionDenied),
		}
		checkCodeAndData(t, tt, serve(tt))
	})

	t.Run("receipt is issued once", func(t *testing.T) {
		paid := payment.StatusPaid
		rec := serve(httpTest{
			method: http.MethodPatch, path: "/payments/" + p1.ID, apiKey: conf.APIKeys.Admin,
			body: marchallObj(t, payment.UpdatePayment{Status: &paid}),
		})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var settled payment.Payment
		decodeData(t, rec, "payment", &settled)
		assert.True(t, strings.HasPrefix(settled.ReceiptNumber, "RCP-"), settled.ReceiptNumber)
		assert.NotNil(t, settled.PaidAt)

		msg, sent := emailsvc.LastSentMessage(u1.Email)
		if assert.True(t, sent, "receipt email not sent") {
			assert.Equal(t, "Payment Receipt "+settled.ReceiptNumber, msg.Subject)
		}

		desc := "first term"
		rec = serve(httpTest{
			method: http.MethodPatch, path: "/payments/" + p1.ID, apiKey: conf.APIKeys.Admin,
			body: marchallObj(t, payment.UpdatePayment{Status: &paid, Description: &desc}),
		})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var again payment.Payment
		decodeData(t, rec, "payment", &again)
		assert.Equal(t, settled.ReceiptNumber, again.ReceiptNumber)
		assert.Equal(t, settled.PaidAt, again.PaidAt)
		assert.Equal(t, desc, again.Description)
	})

	t.Run("only admins delete payments", func(t *testing.T) {
		rec := serve(httpTest{method: http.MethodDelete, path: "/payments/" + p2.ID, apiKey: conf.APIKeys.Direction})
		assert.Equal(t, http.StatusForbidden, rec.Code)
		rec = serve(httpTest{method: http.MethodDelete, path: "/payments/" + p2.ID, apiKey: conf.APIKeys.Admin})
		assert.Equal(t, http.StatusNoContent, rec.Code)
	})
}

func Test_cantineApi(t *testing.T) {
	testutil.ResetDB(t, db)

	kid := testutil.CreateUser(t, usrRepo, "Kid", "kid@test.cd", testPassword, user.RoleStudent, true)
	other := testutil.CreateUser(t, usrRepo, "Other", "other@test.cd", testPassword, user.RoleStudent, true)
	st := testutil.CreateStudent(t, studentRepo, kid.ID, "S-1")
	otherSt := testutil.CreateStudent(t, studentRepo, other.ID, "S-2")
	kidToken := getToken(t, kid)

	items := []cantine.Item{{Name: " Rice ", Price: 2.5, Quantity: 2}, {Name: "Juice", Price: 1.15, Quantity: 3}}

	tests := []httpTest{
		{
			name: "ordering for another student", method: http.MethodPost, path: "/cantine/orders", token: kidToken,
			body:     marchallObj(t, cantine.NewOrder{Student: otherSt.ID, Items: items}),
			wantCode: http.StatusForbidden, wantData: marchallObj(t, errPermissionDenied),
		},
		{
			name: "no items", method: http.MethodPost, path: "/cantine/orders", token: kidToken,
			body: marchallObj(t, cantine.NewOrder{Student: st.ID}), wantCode: http.StatusBadRequest,
		},
		{
			name: "teacher cannot order", method: http.MethodPost, path: "/cantine/orders", apiKey: conf.APIKeys.Teacher,
			body: marchallObj(t, cantine.NewOrder{Student: st.ID, Items: items}), wantCode: http.StatusForbidden,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(tt)
			checkCodeAndData(t, tt, rec)
		})
	}

	rec := serve(httpTest{method: http.MethodPost, path: "/cantine/orders", token: kidToken, body: marchallObj(t, cantine.NewOrder{Student: st.ID, Items: items})})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var o cantine.Order
	decodeData(t, rec, "order", &o)
	assert.InDelta(t, 2.5*2+1.15*3, o.TotalAmount, 1e-9)
	assert.Equal(t, cantine.StatusPending, o.Status)
	assert.Equal(t, "Rice", o.Items[0].Name)

	// staff updates the items; the total follows
	newItems := []cantine.Item{{Name: "Rice", Price: 2.5, Quantity: 1}}
	ready := cantine.StatusReady
	rec = serve(httpTest{
		method: http.MethodPatch, path: "/cantine/orders/" + o.ID, apiKey: conf.APIKeys.Direction,
		body: marchallObj(t, cantine.UpdateOrder{Items: &newItems, Status: &ready}),
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	decodeData(t, rec, "order", &o)
	assert.Equal(t, 2.5, o.TotalAmount)
	assert.Equal(t, cantine.StatusReady, o.Status)

	rec = serve(httpTest{method: http.MethodGet, path: "/cantine/orders", token: getToken(t, other)})
	require.Equal(t, http.StatusOK, rec.Code)
	var orders []cantine.Order
	decodeData(t, rec, "orders", &orders)
	assert.Empty(t, orders)

	rec = serve(httpTest{method: http.MethodGet, path: "/cantine/orders/" + o.ID, token: getToken(t, other)})
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func Test_messageApi(t *testing.T) {
	testutil.ResetDB(t, db)
	emailsvc.ClearSentMessages()

	alice := testutil.CreateUser(t, usrRepo, "Alice", "alice@test.cd", testPassword, user.RoleTeacher, true)
	bob := testutil.CreateUser(t, usrRepo, "Bob", "bob@test.cd", testPassword, user.RoleParent, true)
	eve := testutil.CreateUser(t, usrRepo, "Eve", "eve@test.cd", testPassword, user.RoleParent, true)
	gone := testutil.CreateUser(t, usrRepo, "Gone", "gone@test.cd", testPassword, user.RoleParent, false)
	aliceToken, bobToken := getToken(t, alice), getToken(t, bob)

	sendTests := []httpTest{
		{
			name: "api keys cannot send", apiKey: conf.APIKeys.Admin, wantCode: http.StatusUnauthorized,
			body: marchallObj(t, message.NewMessage{Recipient: bob.ID, Subject: "Hi", Content: "Hello"}),
		},
		{
			name: "unknown recipient", token: aliceToken, wantCode: http.StatusBadRequest,
			body:     marchallObj(t, message.NewMessage{Recipient: core.NewID(), Subject: "Hi", Content: "Hello"}),
			wantData: marchallObj(t, httpErr{Status: "fail", Message: "invalid input data", Errors: map[string]string{"recipient": "user not found"}}),
		},
		{
			name: "inactive recipient", token: aliceToken, wantCode: http.StatusBadRequest,
			body: marchallObj(t, message.NewMessage{Recipient: gone.ID, Subject: "Hi", Content: "Hello"}),
		},
	}
	for _, tt := range sendTests {
		tt.method = http.MethodPost
		tt.path = "/messages"

		t.Run(tt.name, func(t *testing.T) {
			rec := serve(tt)
			checkCodeAndData(t, tt, rec)
		})
	}

	rec := serve(httpTest{
		method: http.MethodPost, path: "/messages", token: aliceToken,
		body: marchallObj(t, message.NewMessage{Recipient: bob.ID, Subject: " Homework ", Content: "Please check the homework."}),
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var m message.Message
	decodeData(t, rec, "message", &m)
	assert.Equal(t, "Homework", m.Subject)
	assert.False(t, m.IsRead)

	notif, sent := emailsvc.LastSentMessage(bob.Email)
	if assert.True(t, sent, "notification not sent") {
		assert.Equal(t, "New message: Homework", notif.Subject)
	}

	box := func(token, query string) []message.Message {
		rec := serve(httpTest{method: http.MethodGet, path: "/messages" + query, token: token})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var messages []message.Message
		decodeData(t, rec, "messages", &messages)
		return messages
	}
	assert.Len(t, box(bobToken, "?box=inbox"), 1)
	assert.Len(t, box(bobToken, "?box=inbox&is_read=false"), 1)
	assert.Empty(t, box(bobToken, "?box=sent"))
	assert.Len(t, box(aliceToken, "?box=sent"), 1)
	assert.Empty(t, box(getToken(t, eve), ""))

	rec = serve(httpTest{method: http.MethodGet, path: "/messages?box=lol", token: bobToken})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// strangers do not see the message
	rec = serve(httpTest{method: http.MethodGet, path: "/messages/" + m.ID, token: getToken(t, eve)})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	// only the recipient marks it as read
	rec = serve(httpTest{method: http.MethodPatch, path: "/messages/" + m.ID + "/read", token: aliceToken})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = serve(httpTest{method: http.MethodPatch, path: "/messages/" + m.ID + "/read", token: bobToken})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var read message.Message
	decodeData(t, rec, "message", &read)
	assert.True(t, read.IsRead)
	require.NotNil(t, read.ReadAt)

	rec = serve(httpTest{method: http.MethodPatch, path: "/messages/" + m.ID + "/read", token: bobToken})
	require.Equal(t, http.StatusOK, rec.Code)
	var readAgain message.Message
	decodeData(t, rec, "message", &readAgain)
	assert.Equal(t, read.ReadAt, readAgain.ReadAt)

	assert.Empty(t, box(bobToken, "?box=inbox&is_read=false"))
	assert.Len(t, box(bobToken, "?is_read=true"), 1)
}

func Test_fileApi_upload(t *testing.T) {
	testutil.ResetDB(t, db)

	tchr := testutil.CreateUser(t, usrRepo, "Teacher", "teacher@test.cd", testPassword, user.RoleTeacher, true)
	parentUsr := testutil.CreateUser(t, usrRepo, "Parent", "parent@test.cd", testPassword, user.RoleParent, true)

	upload := func(token, folder, filename string, content []byte) *httptest.ResponseRecorder {
		var body bytes.Buffer
		w := multipart.NewWriter(&body)
		if folder != "" {
			require.NoError(t, w.WriteField("folder", folder))
		}
		if filename != "" {
			part, err := w.CreateFormFile("file", filename)
			require.NoError(t, err)
			_, err = part.Write(content)
			require.NoError(t, err)
		}
		require.NoError(t, w.Close())

		req := httptest.NewRequest(http.MethodPost, apiPrefix+"/files", &body)
		req.Header.Set("Content-Type", w.FormDataContentType())
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		app.ServeHTTP(rec, req)
		return rec
	}

	t.Run("parents cannot upload", func(t *testing.T) {
		rec := upload(getToken(t, parentUsr), "", "notes.txt", []byte("hello"))
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})
	t.Run("file required", func(t *testing.T) {
		rec := upload(getToken(t, tchr), "homework", "", nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
	t.Run("invalid folder", func(t *testing.T) {
		rec := upload(getToken(t, tchr), "../etc", "notes.txt", []byte("hello"))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
	t.Run("file too large", func(t *testing.T) {
		rec := upload(getToken(t, tchr), "", "big.txt", bytes.Repeat([]byte("a"), int(conf.Files.MaxSize)+1))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
	t.Run("uploaded", func(t *testing.T) {
		rec := upload(getToken(t, tchr), "Homework", "notes.txt", []byte("hello"))
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		var f UploadedFile
		decodeData(t, rec, "file", &f)
		assert.True(t, strings.HasPrefix(f.Key, "homework/"), f.Key)
		assert.Equal(t, "notes.txt", f.Name)
		assert.Equal(t, int64(5), f.Size)
		assert.NotEmpty(t, f.URL)

		// served back by the local backend
		req := httptest.NewRequest(http.MethodGet, "/uploads/"+f.Key, nil)
		rec = httptest.NewRecorder()
		app.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "hello", rec.Body.String())
	})
}
